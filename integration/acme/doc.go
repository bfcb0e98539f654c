// Package acme provisions TLS certificates for verified custom domains.
// Issuance runs asynchronously against an ACME CA (Let's Encrypt by default)
// and exposes a poll-based status surface; artifacts land on disk where the
// edge proxy picks them up.
package acme
