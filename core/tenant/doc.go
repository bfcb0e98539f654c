// Package tenant defines the tenant record, its domain onboarding status, the
// closed storefront template enumeration, and the resolver that maps inbound
// request hosts to tenants.
//
// Resolution has two branches: requests on the platform's own domain select a
// tenant by the path segment after the reserved prefix (/e/<slug>), while
// requests on any other host select the tenant whose custom domain exactly
// matches. A platform-hosted request without a slug resolves to no tenant and
// is served by the public auth/marketing surface.
package tenant
