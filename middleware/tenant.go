package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/vitrinehq/vitrine/core/tenant"
)

// tenantContextKey is used as a key for storing the resolved tenant match in
// the request context.
type tenantContextKey struct{}

// ResolveTenant maps the request host (and path, for platform-hosted
// requests) to a tenant and stores the match in the context. Requests on the
// platform's public surface pass through without a match; an unknown slug or
// custom domain gets a 404.
func ResolveTenant(resolver *tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			match, err := resolver.Resolve(r.Context(), r.Host, r.URL.Path)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) {
					http.NotFound(w, r)
					return
				}
				http.Error(w, "tenant resolution failed", http.StatusInternalServerError)
				return
			}

			if match == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), tenantContextKey{}, match)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenant retrieves the resolved tenant match from the request context.
func GetTenant(ctx context.Context) (*tenant.Match, bool) {
	match, ok := ctx.Value(tenantContextKey{}).(*tenant.Match)
	return match, ok
}

// RequireTenant rejects requests that did not resolve to a tenant. Mounted on
// storefront routes that only make sense in a tenant's context.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetTenant(r.Context()); !ok {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
