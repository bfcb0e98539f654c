package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrinehq/vitrine/core/tenant"
)

// TenantStore implements tenant.Store on PostgreSQL.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a tenant store backed by pool.
func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{pool: pool}
}

const tenantColumns = `id, owner_id, platform_slug, custom_domain, domain_status, template,
	name, description, logo_url, primary_color, secondary_color,
	whatsapp, email, address, active, created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var (
		t          tenant.Tenant
		templateID int
	)
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.PlatformSlug, &t.CustomDomain, &t.DomainStatus, &templateID,
		&t.Name, &t.Description, &t.LogoURL, &t.PrimaryColor, &t.SecondaryColor,
		&t.WhatsApp, &t.Email, &t.Address, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	t.Template = tenant.TemplateFromID(templateID)
	return &t, nil
}

// ByID returns the tenant with the given ID.
func (s *TenantStore) ByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// ByOwner returns the tenant administered by the given operator.
func (s *TenantStore) ByOwner(ctx context.Context, ownerID uuid.UUID) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE owner_id = $1 ORDER BY created_at LIMIT 1`, ownerID)
	return scanTenant(row)
}

// BySlug returns the tenant whose platform slug equals slug.
func (s *TenantStore) BySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE platform_slug = $1`, slug)
	return scanTenant(row)
}

// ByCustomDomain returns the tenant whose custom domain exactly matches domain.
func (s *TenantStore) ByCustomDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	if domain == "" {
		return nil, tenant.ErrTenantNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE custom_domain = $1`, domain)
	return scanTenant(row)
}

// Create persists a new tenant. The platform slug must be unused.
func (s *TenantStore) Create(ctx context.Context, t *tenant.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.DomainStatus == "" {
		t.DomainStatus = tenant.DomainUnconfigured
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (
			id, owner_id, platform_slug, custom_domain, domain_status, template,
			name, description, logo_url, primary_color, secondary_color,
			whatsapp, email, address, active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		t.ID, t.OwnerID, t.PlatformSlug, t.CustomDomain, t.DomainStatus, int(t.Template),
		t.Name, t.Description, t.LogoURL, t.PrimaryColor, t.SecondaryColor,
		t.WhatsApp, t.Email, t.Address, t.Active, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if IsDuplicateKeyError(err) {
			switch constraintName(err) {
			case "tenants_custom_domain_key":
				return tenant.ErrDomainTaken
			default:
				return tenant.ErrSlugTaken
			}
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

// ClaimCustomDomain attaches domain to the tenant and resets onboarding to
// dns_pending. The update is conditional on the tenant having no other domain
// attached, so a claim never silently reassigns a bound domain.
func (s *TenantStore) ClaimCustomDomain(ctx context.Context, tenantID uuid.UUID, domain string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants
		SET custom_domain = $2, domain_status = $3, updated_at = now()
		WHERE id = $1 AND (custom_domain = '' OR custom_domain = $2)`,
		tenantID, domain, tenant.DomainDNSPending,
	)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return tenant.ErrDomainTaken
		}
		return fmt.Errorf("claim custom domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the tenant does not exist or another domain is attached.
		if _, err := s.ByID(ctx, tenantID); err != nil {
			return err
		}
		return tenant.ErrDomainBound
	}
	return nil
}

// ReleaseCustomDomain detaches the tenant's custom domain.
func (s *TenantStore) ReleaseCustomDomain(ctx context.Context, tenantID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants
		SET custom_domain = '', domain_status = $2, updated_at = now()
		WHERE id = $1`,
		tenantID, tenant.DomainRemoved,
	)
	if err != nil {
		return fmt.Errorf("release custom domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// UpdateDomainStatus records a confirmed onboarding stage change.
func (s *TenantStore) UpdateDomainStatus(ctx context.Context, tenantID uuid.UUID, status tenant.DomainStatus) error {
	if !status.IsValid() {
		return tenant.ErrInvalidStatus
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants SET domain_status = $2, updated_at = now() WHERE id = $1`,
		tenantID, status,
	)
	if err != nil {
		return fmt.Errorf("update domain status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// UpdateProfile replaces the tenant's editable profile fields.
func (s *TenantStore) UpdateProfile(ctx context.Context, tenantID uuid.UUID, p tenant.Profile) error {
	tmpl := tenant.TemplateFromID(int(p.Template))
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants
		SET name = $2, description = $3, logo_url = $4, primary_color = $5,
			secondary_color = $6, whatsapp = $7, email = $8, address = $9,
			template = $10, active = $11, updated_at = now()
		WHERE id = $1`,
		tenantID, p.Name, p.Description, p.LogoURL, p.PrimaryColor,
		p.SecondaryColor, p.WhatsApp, p.Email, p.Address, int(tmpl), p.Active,
	)
	if err != nil {
		return fmt.Errorf("update tenant profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

var _ tenant.Store = (*TenantStore)(nil)
