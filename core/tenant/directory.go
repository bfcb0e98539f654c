package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Directory provides read access to the tenant records needed for request
// resolution. Implementations must be safe for concurrent use; the resolver
// performs no network calls itself and expects lookups to be served from an
// in-memory or cached directory populated by the tenant data store.
type Directory interface {
	// BySlug returns the tenant whose PlatformSlug equals slug, or
	// ErrTenantNotFound.
	BySlug(ctx context.Context, slug string) (*Tenant, error)

	// ByCustomDomain returns the tenant whose CustomDomain exactly matches
	// domain, or ErrTenantNotFound.
	ByCustomDomain(ctx context.Context, domain string) (*Tenant, error)
}

// Store extends Directory with the mutations used by registration and domain
// onboarding.
type Store interface {
	Directory

	// ByID returns the tenant with the given ID, or ErrTenantNotFound.
	ByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// ByOwner returns the tenant administered by the given operator, or
	// ErrTenantNotFound.
	ByOwner(ctx context.Context, ownerID uuid.UUID) (*Tenant, error)

	// Create persists a new tenant. Returns ErrSlugTaken when the platform
	// slug is already in use.
	Create(ctx context.Context, t *Tenant) error

	// ClaimCustomDomain attaches domain to the tenant and resets its status
	// to DomainDNSPending. Returns ErrDomainTaken when another tenant
	// already claims the domain, and ErrDomainBound when the tenant still
	// has a different domain attached.
	ClaimCustomDomain(ctx context.Context, tenantID uuid.UUID, domain string) error

	// ReleaseCustomDomain detaches the tenant's custom domain and records
	// DomainRemoved.
	ReleaseCustomDomain(ctx context.Context, tenantID uuid.UUID) error

	// UpdateDomainStatus records a confirmed onboarding stage change.
	UpdateDomainStatus(ctx context.Context, tenantID uuid.UUID, status DomainStatus) error

	// UpdateProfile replaces the tenant's editable profile fields.
	UpdateProfile(ctx context.Context, tenantID uuid.UUID, p Profile) error
}
