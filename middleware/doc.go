// Package middleware provides the HTTP middleware chain: request IDs,
// structured request logging, cookie-backed operator sessions, and
// host/path-based tenant resolution.
package middleware
