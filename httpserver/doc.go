// Package httpserver exposes the platform over HTTP: operator auth and admin
// APIs on the platform host, the storefront API on custom domains and under
// /e/{slug}, and the custom-domain onboarding endpoints that drive the DNS
// verification and certificate issuance flow.
//
// The Server type wraps http.Server with graceful shutdown; Handlers carries
// the application services and Router assembles the middleware chain around
// them.
package httpserver
