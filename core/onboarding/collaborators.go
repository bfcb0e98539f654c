package onboarding

import "context"

// CheckStatus is the typed outcome of a DNS verification check.
type CheckStatus string

const (
	// CheckOK means the domain's DNS points at the platform.
	CheckOK CheckStatus = "ok"

	// CheckMismatch means DNS resolved but does not point at the platform.
	CheckMismatch CheckStatus = "mismatch"

	// CheckError means the collaborator reported a definitive error for the
	// domain (e.g. the zone does not exist).
	CheckError CheckStatus = "error"
)

// CheckResult describes a single DNS verification attempt.
type CheckResult struct {
	Status CheckStatus
	Detail string
}

// DomainVerifier checks whether a domain's DNS record points at the platform.
// Expected failure modes (mismatch, definitive error) are reported in the
// result; a non-nil error means the check itself could not be performed
// (transport failure) and is treated as transient by the caller. Retries are
// orchestrated by the caller, never by the implementation.
type DomainVerifier interface {
	Check(ctx context.Context, domain string) (CheckResult, error)
}

// CertStatus is the typed outcome of a certificate issuance poll.
type CertStatus string

const (
	// CertPending means issuance is still in progress.
	CertPending CertStatus = "pending"

	// CertIssued means the certificate was issued and installed.
	CertIssued CertStatus = "issued"

	// CertError means issuance failed definitively.
	CertError CertStatus = "error"
)

// IssuanceStatus describes the state of one certificate issuance attempt.
type IssuanceStatus struct {
	Status CertStatus
	Detail string
}

// CertificateProvisioner requests and reports on TLS certificate issuance for
// a verified domain. Implementations must be idempotent per domain:
// RequestIssuance for a domain with an attempt already in flight returns the
// existing attempt identifier. The caller owns polling cadence and
// cancellation; a non-nil error from either method is a transport-level
// failure and treated as transient.
type CertificateProvisioner interface {
	RequestIssuance(ctx context.Context, domain string) (attemptID string, err error)
	PollStatus(ctx context.Context, attemptID string) (IssuanceStatus, error)
}

// StatusRecorder persists confirmed domain status changes. Satisfied by
// tenant.Store; the machine never mutates tenant state optimistically, only
// on confirmed collaborator results and explicit operator actions.
type StatusRecorder interface {
	RecordDomainStatus(ctx context.Context, stage Stage) error
}

// RecorderFunc adapts a function to the StatusRecorder interface.
type RecorderFunc func(ctx context.Context, stage Stage) error

func (f RecorderFunc) RecordDomainStatus(ctx context.Context, stage Stage) error {
	return f(ctx, stage)
}
