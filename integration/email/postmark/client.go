package postmark

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/vitrinehq/vitrine/core/email"
)

// Config holds Postmark credentials and sender identity.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail  string `env:"POSTMARK_SENDER_EMAIL,required"`
	SupportEmail string `env:"POSTMARK_SUPPORT_EMAIL,required"`
}

// Client is a Postmark-backed email sender.
type Client struct {
	client *postmark.Client
	config Config
}

// New creates a Postmark-backed email sender. All config fields are required;
// failing fast here beats silent delivery failures in production.
func New(cfg Config) (*Client, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", email.ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", email.ErrInvalidConfig)
	}
	if err := (email.SendEmailParams{SendTo: cfg.SenderEmail, Subject: "x", BodyHTML: "x"}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", email.ErrInvalidConfig)
	}
	if err := (email.SendEmailParams{SendTo: cfg.SupportEmail, Subject: "x", BodyHTML: "x"}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", email.ErrInvalidConfig)
	}

	return &Client{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// SendEmail implements email.EmailSender using Postmark's transactional API.
// Reply-To is set to the support address so replies reach a monitored inbox.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:       c.config.SenderEmail,
		ReplyTo:    c.config.SupportEmail,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			email.ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

var _ email.EmailSender = (*Client)(nil)
