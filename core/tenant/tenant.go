package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a registered business account with its own catalog, branding, and
// domain configuration.
//
// Invariants: PlatformSlug is immutable once assigned (re-slugging would break
// already-shared links); at most one tenant may claim a given CustomDomain;
// DomainStatus may only be DomainActive after a certificate was confirmed
// issued.
type Tenant struct {
	ID uuid.UUID

	// OwnerID is the operator account that administers this tenant.
	OwnerID uuid.UUID

	// PlatformSlug is the path segment under the platform's shared domain,
	// e.g. /e/<slug>.
	PlatformSlug string

	// CustomDomain is the tenant-owned domain, empty until attached.
	CustomDomain string

	DomainStatus DomainStatus
	Template     Template

	Name           string
	Description    string
	LogoURL        string
	PrimaryColor   string
	SecondaryColor string
	WhatsApp       string
	Email          string
	Address        string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile holds the tenant fields an operator may edit from the dashboard.
// Identity (ID, OwnerID, PlatformSlug) and domain state are managed through
// dedicated operations and are deliberately absent.
type Profile struct {
	Name           string
	Description    string
	LogoURL        string
	PrimaryColor   string
	SecondaryColor string
	WhatsApp       string
	Email          string
	Address        string
	Template       Template
	Active         bool
}

// Apply copies the profile onto t, normalizing an unknown template to the
// default.
func (p Profile) Apply(t *Tenant) {
	t.Name = p.Name
	t.Description = p.Description
	t.LogoURL = p.LogoURL
	t.PrimaryColor = p.PrimaryColor
	t.SecondaryColor = p.SecondaryColor
	t.WhatsApp = p.WhatsApp
	t.Email = p.Email
	t.Address = p.Address
	t.Template = TemplateFromID(int(p.Template))
	t.Active = p.Active
}

// HasCustomDomain reports whether a custom domain is attached, regardless of
// its onboarding stage.
func (t Tenant) HasCustomDomain() bool {
	return t.CustomDomain != ""
}

// DomainIsPublic reports whether the custom domain reached Active and may be
// advertised to end customers. Pre-Active domains still resolve so the
// operator can preview the storefront.
func (t Tenant) DomainIsPublic() bool {
	return t.HasCustomDomain() && t.DomainStatus == DomainActive
}
