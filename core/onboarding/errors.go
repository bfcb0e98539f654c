package onboarding

import "errors"

var (
	// ErrInvalidDomain is returned when the supplied domain name is
	// malformed. Rejected before any collaborator call.
	ErrInvalidDomain = errors.New("invalid domain name")

	// ErrNoDomain is returned when an event requires an attached domain but
	// none was recorded.
	ErrNoDomain = errors.New("no domain attached to attempt")

	// ErrVerificationUnavailable wraps transport failures from the domain
	// verifier; the stage is unchanged and the check may be repeated.
	ErrVerificationUnavailable = errors.New("domain verification temporarily unavailable")

	// ErrProvisionerUnavailable wraps transport failures from the
	// certificate provisioner on the initial issuance request.
	ErrProvisionerUnavailable = errors.New("certificate provisioner temporarily unavailable")
)
