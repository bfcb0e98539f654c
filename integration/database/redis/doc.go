// Package redis provides Redis client initialization with startup retry and
// health checking, plus the token-keyed session store used by the admin
// surface.
package redis
