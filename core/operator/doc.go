// Package operator manages business-owner accounts: registration with bcrypt
// password hashing and credential verification for login. Session issuance is
// handled separately by core/session.
package operator
