package notification

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/vitrinehq/vitrine/core/email"
	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/onboarding"
	"github.com/vitrinehq/vitrine/core/tenant"
)

// Notifier sends operator-facing emails for domain onboarding milestones.
type Notifier struct {
	sender email.EmailSender
	log    *slog.Logger
}

// New creates a Notifier delivering through sender.
func New(sender email.EmailSender, log *slog.Logger) *Notifier {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Notifier{sender: sender, log: log}
}

// DomainActivated tells the operator their custom domain is live.
func (n *Notifier) DomainActivated(ctx context.Context, t *tenant.Tenant) error {
	if t.Email == "" {
		return nil
	}

	domain := html.EscapeString(t.CustomDomain)
	body := fmt.Sprintf(
		`<h2>Your domain is live</h2>
<p>Your store <strong>%s</strong> is now reachable at
<a href="https://%s">https://%s</a> with a valid TLS certificate.</p>`,
		html.EscapeString(t.Name), domain, domain)

	return n.send(ctx, email.SendEmailParams{
		SendTo:   t.Email,
		Subject:  fmt.Sprintf("%s is now live", t.CustomDomain),
		BodyHTML: body,
		Tag:      "domain_activated",
	})
}

// DomainFailed tells the operator onboarding stopped and why.
func (n *Notifier) DomainFailed(ctx context.Context, t *tenant.Tenant, reason string) error {
	if t.Email == "" {
		return nil
	}

	body := fmt.Sprintf(
		`<h2>Domain setup needs attention</h2>
<p>Setting up <strong>%s</strong> for your store <strong>%s</strong> failed:</p>
<p>%s</p>
<p>Fix your DNS settings and retry from the dashboard.</p>`,
		html.EscapeString(t.CustomDomain), html.EscapeString(t.Name),
		html.EscapeString(reason))

	return n.send(ctx, email.SendEmailParams{
		SendTo:   t.Email,
		Subject:  fmt.Sprintf("Action needed: %s setup failed", t.CustomDomain),
		BodyHTML: body,
		Tag:      "domain_failed",
	})
}

// StageHook returns a callback for onboarding.WithStageChangeHook that mails
// the operator on the two stages they care about. Delivery failures are
// logged, never propagated into the state machine.
func (n *Notifier) StageHook(t *tenant.Tenant, failureReason func() string) func(from, to onboarding.Stage) {
	return func(from, to onboarding.Stage) {
		ctx := context.Background()
		var err error
		switch to {
		case onboarding.StageActive:
			err = n.DomainActivated(ctx, t)
		case onboarding.StageFailed:
			reason := ""
			if failureReason != nil {
				reason = failureReason()
			}
			err = n.DomainFailed(ctx, t, reason)
		default:
			return
		}
		if err != nil {
			n.log.ErrorContext(ctx, "notification delivery failed",
				logger.TenantID(t.ID), logger.Domain(t.CustomDomain), logger.Error(err))
		}
	}
}

func (n *Notifier) send(ctx context.Context, params email.SendEmailParams) error {
	if err := n.sender.SendEmail(ctx, params); err != nil {
		return err
	}
	n.log.InfoContext(ctx, "notification sent", slog.String("tag", params.Tag))
	return nil
}
