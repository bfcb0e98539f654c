package operator

import "errors"

var (
	// ErrNotFound is returned when no operator matches the lookup.
	ErrNotFound = errors.New("operator not found")

	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login. Deliberately the
	// same for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword is returned when the password does not meet the
	// minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrInvalidEmail is returned when the email address is malformed.
	ErrInvalidEmail = errors.New("invalid email address")
)
