package httpserver

import (
	"log/slog"

	"github.com/vitrinehq/vitrine/core/catalog"
	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/notification"
	"github.com/vitrinehq/vitrine/core/onboarding"
	"github.com/vitrinehq/vitrine/core/operator"
	"github.com/vitrinehq/vitrine/core/tenant"
)

// Handlers bundles the application services behind the HTTP surface.
type Handlers struct {
	tenants      tenant.Store
	catalog      *catalog.Service
	operators    *operator.Service
	registry     *AttemptRegistry
	verifier     onboarding.DomainVerifier
	provisioner  onboarding.CertificateProvisioner
	notifier     *notification.Notifier
	platformApex string
	log          *slog.Logger
}

// HandlersConfig carries the dependencies for NewHandlers. Notifier is
// optional; everything else is required. PlatformApex is the shared domain
// that hosts path-based storefronts (e.g. "vitrine.app").
type HandlersConfig struct {
	Tenants      tenant.Store
	Catalog      *catalog.Service
	Operators    *operator.Service
	Verifier     onboarding.DomainVerifier
	Provisioner  onboarding.CertificateProvisioner
	Notifier     *notification.Notifier
	PlatformApex string
	Log          *slog.Logger
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(cfg HandlersConfig) *Handlers {
	log := cfg.Log
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Handlers{
		tenants:      cfg.Tenants,
		catalog:      cfg.Catalog,
		operators:    cfg.Operators,
		registry:     NewAttemptRegistry(),
		verifier:     cfg.Verifier,
		provisioner:  cfg.Provisioner,
		notifier:     cfg.Notifier,
		platformApex: cfg.PlatformApex,
		log:          log,
	}
}
