package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/session"
	"github.com/vitrinehq/vitrine/core/tenant"
	"github.com/vitrinehq/vitrine/middleware"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries the cross-cutting pieces the router wires around the
// handlers.
type RouterConfig struct {
	Sessions *session.Manager
	Resolver *tenant.Resolver

	// SecureCookies marks session cookies Secure; disable only in local dev.
	SecureCookies bool

	// HealthChecks are probed by GET /healthz, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	Log *slog.Logger
}

// Router assembles the full HTTP surface: operator auth and admin APIs on the
// platform host, and the storefront API reachable both on custom domains and
// under /e/{slug} on the platform host.
func (h *Handlers) Router(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.NewDiscard()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthzHandler(cfg.HealthChecks, log))

	// Operator account lifecycle.
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)

	// Admin dashboard API, session-scoped to the operator's tenant.
	admin := http.NewServeMux()
	admin.HandleFunc("GET /api/admin/profile", h.handleGetProfile)
	admin.HandleFunc("PUT /api/admin/profile", h.handleUpdateProfile)
	admin.HandleFunc("GET /api/admin/products", h.handleListProducts)
	admin.HandleFunc("POST /api/admin/products", h.handleCreateProduct)
	admin.HandleFunc("PUT /api/admin/products/{id}", h.handleUpdateProduct)
	admin.HandleFunc("DELETE /api/admin/products/{id}", h.handleDeleteProduct)
	admin.HandleFunc("GET /api/admin/orders", h.handleListOrders)
	admin.HandleFunc("GET /api/admin/stats", h.handleStats)
	admin.HandleFunc("POST /api/admin/domain", h.handleAttachDomain)
	admin.HandleFunc("GET /api/admin/domain", h.handleDomainStatus)
	admin.HandleFunc("POST /api/admin/domain/dns-check", h.handleCheckDNS)
	admin.HandleFunc("POST /api/admin/domain/certificate", h.handleRequestCertificate)
	admin.HandleFunc("POST /api/admin/domain/cancel", h.handleCancelOnboarding)
	admin.HandleFunc("DELETE /api/admin/domain", h.handleRemoveDomain)
	mux.Handle("/api/admin/", middleware.RequireAuth("/login")(admin))

	// Storefront API. The same handlers serve custom-domain requests at the
	// root and platform-hosted requests under /e/{slug}; the tenant
	// middleware resolves either form.
	store := http.NewServeMux()
	store.HandleFunc("GET /api/store/{$}", h.handleStorefront)
	store.HandleFunc("POST /api/store/orders", h.handleCreateOrder)
	store.HandleFunc("GET /api/store/qr", h.handleStoreQR)
	mux.Handle("/api/store/", middleware.RequireTenant(store))
	mux.Handle("/e/{slug}/api/store/", middleware.RequireTenant(stripSlugPrefix(store)))

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Session(middleware.SessionConfig{
			Manager: cfg.Sessions,
			Secure:  cfg.SecureCookies,
		}),
		middleware.ResolveTenant(cfg.Resolver),
	}

	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

// stripSlugPrefix removes the /e/{slug} segment so platform-hosted storefront
// requests hit the same routes as custom-domain ones.
func stripSlugPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.StripPrefix("/e/"+r.PathValue("slug"), next).ServeHTTP(w, r)
	})
}

func healthzHandler(checks map[string]HealthCheck, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "healthcheck failed",
					slog.String("dependency", name), logger.Error(err))
				status[name] = "unhealthy"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}
