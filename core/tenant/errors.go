package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches the requested
	// host or slug. Callers render a tenant-not-found page, never crash.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSlugTaken is returned when registering a tenant with a platform
	// slug that is already in use.
	ErrSlugTaken = errors.New("platform slug already taken")

	// ErrInvalidSlug is returned when a platform slug does not match the
	// required format.
	ErrInvalidSlug = errors.New("invalid platform slug")

	// ErrDomainTaken is returned when attaching a custom domain that is
	// already claimed by another tenant.
	ErrDomainTaken = errors.New("custom domain already claimed by another tenant")

	// ErrDomainBound is returned when replacing a custom domain that is
	// still attached; it must be removed explicitly first, silent
	// reassignment is not allowed.
	ErrDomainBound = errors.New("custom domain must be removed before attaching a new one")

	// ErrInvalidStatus is returned on an attempt to persist an unknown
	// domain status value.
	ErrInvalidStatus = errors.New("invalid domain status")
)
