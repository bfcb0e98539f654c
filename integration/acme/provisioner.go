package acme

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/onboarding"
)

// DefaultIssueTimeout bounds a single issuance attempt end to end,
// covering the ACME order, challenge, and artifact write.
const DefaultIssueTimeout = 5 * time.Minute

// ErrUnknownAttempt is returned by PollStatus for an attempt identifier the
// provisioner never handed out (or that was evicted on restart).
var ErrUnknownAttempt = errors.New("unknown issuance attempt")

type attempt struct {
	id     string
	domain string

	mu     sync.Mutex
	status onboarding.IssuanceStatus
	done   bool
}

func (a *attempt) snapshot() onboarding.IssuanceStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *attempt) finish(status onboarding.IssuanceStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
	a.done = true
}

// Provisioner runs certificate issuance asynchronously and answers status
// polls. It implements onboarding.CertificateProvisioner. Issuance is
// idempotent per domain: requesting a domain with an attempt still pending
// returns the existing attempt identifier. A finished attempt (issued or
// failed) does not block a fresh request for the same domain.
type Provisioner struct {
	issuer       Issuer
	issueTimeout time.Duration
	log          *slog.Logger

	mu         sync.Mutex
	byID       map[string]*attempt
	byDomain   map[string]*attempt
	inFlightWG sync.WaitGroup
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithIssueTimeout bounds each issuance attempt.
func WithIssueTimeout(d time.Duration) ProvisionerOption {
	return func(p *Provisioner) {
		if d > 0 {
			p.issueTimeout = d
		}
	}
}

// WithLogger sets the provisioner's logger.
func WithLogger(log *slog.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProvisioner creates a Provisioner issuing certificates through issuer.
func NewProvisioner(issuer Issuer, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		issuer:       issuer,
		issueTimeout: DefaultIssueTimeout,
		log:          logger.NewDiscard(),
		byID:         make(map[string]*attempt),
		byDomain:     make(map[string]*attempt),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestIssuance starts (or joins) an issuance attempt for the domain and
// returns its identifier. The attempt runs in the background; callers follow
// it through PollStatus.
func (p *Provisioner) RequestIssuance(ctx context.Context, domain string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.byDomain[domain]; ok {
		existing.mu.Lock()
		pending := !existing.done
		existing.mu.Unlock()
		if pending {
			return existing.id, nil
		}
	}

	a := &attempt{
		id:     uuid.NewString(),
		domain: domain,
		status: onboarding.IssuanceStatus{Status: onboarding.CertPending},
	}
	p.byID[a.id] = a
	p.byDomain[domain] = a

	// Issuance outlives the request that triggered it.
	issueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.issueTimeout)

	p.inFlightWG.Add(1)
	go func() {
		defer p.inFlightWG.Done()
		defer cancel()
		p.run(issueCtx, a)
	}()

	p.log.InfoContext(ctx, "certificate issuance requested",
		logger.Domain(domain), logger.AttemptID(a.id))

	return a.id, nil
}

func (p *Provisioner) run(ctx context.Context, a *attempt) {
	cert, err := p.issuer.Issue(ctx, a.domain)
	if err != nil {
		p.log.ErrorContext(ctx, "certificate issuance failed",
			logger.Domain(a.domain), logger.AttemptID(a.id), logger.Error(err))
		a.finish(onboarding.IssuanceStatus{
			Status: onboarding.CertError,
			Detail: err.Error(),
		})
		return
	}

	p.log.InfoContext(ctx, "certificate issued",
		logger.Domain(a.domain), logger.AttemptID(a.id),
		slog.String("cert_path", cert.CertificatePath))

	a.finish(onboarding.IssuanceStatus{Status: onboarding.CertIssued})
}

// PollStatus reports the current state of an issuance attempt.
func (p *Provisioner) PollStatus(ctx context.Context, attemptID string) (onboarding.IssuanceStatus, error) {
	p.mu.Lock()
	a, ok := p.byID[attemptID]
	p.mu.Unlock()
	if !ok {
		return onboarding.IssuanceStatus{}, ErrUnknownAttempt
	}
	return a.snapshot(), nil
}

// Wait blocks until all in-flight issuance attempts finish. Used on shutdown
// and in tests.
func (p *Provisioner) Wait() {
	p.inFlightWG.Wait()
}
