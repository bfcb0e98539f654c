package tenant

// DomainStatus tracks how far a tenant's custom domain has progressed through
// onboarding. It is the single source of truth for the domain's state and is
// only advanced on confirmed collaborator results, never optimistically.
type DomainStatus string

const (
	// DomainUnconfigured means no custom domain has been attached.
	DomainUnconfigured DomainStatus = "unconfigured"

	// DomainDNSPending means a domain was attached and is waiting for its
	// DNS records to point at the platform.
	DomainDNSPending DomainStatus = "dns_pending"

	// DomainDNSVerified means DNS resolution was confirmed; the domain is
	// eligible for certificate issuance.
	DomainDNSVerified DomainStatus = "dns_verified"

	// DomainCertPending means certificate issuance was requested and is
	// being polled.
	DomainCertPending DomainStatus = "cert_pending"

	// DomainActive means a certificate was confirmed issued and the domain
	// serves the storefront over TLS.
	DomainActive DomainStatus = "active"

	// DomainFailed means verification or issuance reported a definitive
	// error. Failed is retryable, not terminal.
	DomainFailed DomainStatus = "failed"

	// DomainRemoved means the operator detached the domain.
	DomainRemoved DomainStatus = "removed"
)

// IsValid reports whether s is one of the known statuses.
func (s DomainStatus) IsValid() bool {
	switch s {
	case DomainUnconfigured, DomainDNSPending, DomainDNSVerified,
		DomainCertPending, DomainActive, DomainFailed, DomainRemoved:
		return true
	}
	return false
}

// IsTerminal reports whether no further automatic progress occurs without new
// operator action.
func (s DomainStatus) IsTerminal() bool {
	return s == DomainActive || s == DomainRemoved
}

func (s DomainStatus) String() string {
	return string(s)
}
