package email

import (
	"context"
	"regexp"
)

// EmailSender delivers transactional email. Implementations live under
// integration/email; core packages depend only on this interface.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one transactional email.
type SendEmailParams struct {
	// SendTo is the recipient email address.
	SendTo string

	// Subject is the email subject line.
	Subject string

	// BodyHTML is the HTML email body.
	BodyHTML string

	// Tag is an optional provider-side tag for analytics.
	Tag string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate checks that required fields are present and the recipient address
// is well formed.
func (p SendEmailParams) Validate() error {
	if p.SendTo == "" || !emailRegex.MatchString(p.SendTo) {
		return ErrInvalidRecipient
	}
	if p.Subject == "" {
		return ErrMissingSubject
	}
	if p.BodyHTML == "" {
		return ErrMissingBody
	}
	return nil
}
