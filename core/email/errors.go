package email

import "errors"

var (
	// ErrFailedToSendEmail wraps provider-level delivery failures.
	ErrFailedToSendEmail = errors.New("failed to send email")

	// ErrInvalidConfig is returned when a sender is constructed with
	// incomplete configuration.
	ErrInvalidConfig = errors.New("invalid email sender configuration")

	// ErrInvalidRecipient is returned when the recipient address is missing
	// or malformed.
	ErrInvalidRecipient = errors.New("invalid recipient email address")

	// ErrMissingSubject is returned when the subject line is empty.
	ErrMissingSubject = errors.New("email subject is required")

	// ErrMissingBody is returned when the HTML body is empty.
	ErrMissingBody = errors.New("email body is required")
)
