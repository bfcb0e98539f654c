package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehq/vitrine/core/logger"
)

const (
	// DefaultPollInterval is the cadence for certificate status polling.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxPollAttempts bounds CertPending so polling never runs
	// unbounded; exceeding it fails the attempt with a timeout reason.
	DefaultMaxPollAttempts = 60
)

// Machine drives one tenant's custom domain through the onboarding stages
//
//	Unconfigured → DNSPending → DNSVerified → CertPending → Active
//
// with Failed reachable from DNSPending and CertPending (and retryable via
// Start), and Removed as the operator-initiated terminal stage.
//
// The machine owns polling cadence and cancellation for certificate issuance.
// All event methods are safe for concurrent use; the transition table is
// total, so events that are invalid in the current stage are reported as
// ignored rather than failing.
type Machine struct {
	mu sync.Mutex

	tenantID uuid.UUID
	domain   string
	stage    Stage

	lastCheck     *CheckResult
	lastCheckedAt time.Time
	certAttemptID string
	failureReason string

	// gen is the attempt generation. Poll loops and in-flight collaborator
	// calls (DNS checks, issuance requests) carry the generation they were
	// started with; their results are discarded once the generations
	// diverge, so a response landing after Cancel, Remove, or a restart
	// never mutates state. A boolean flag would not survive
	// start/stop/start cycles.
	gen        uint64
	pollCancel context.CancelFunc
	pollWG     sync.WaitGroup

	verifier    DomainVerifier
	provisioner CertificateProvisioner
	recorder    StatusRecorder
	onChange    func(from, to Stage)

	pollInterval    time.Duration
	maxPollAttempts int
	log             *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithPollInterval overrides the certificate polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(m *Machine) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// WithMaxPollAttempts overrides the CertPending poll budget.
func WithMaxPollAttempts(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxPollAttempts = n
		}
	}
}

// WithLogger sets the structured logger (default: discard).
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithStatusRecorder wires confirmed stage changes to persistent storage,
// typically the tenant directory.
func WithStatusRecorder(rec StatusRecorder) Option {
	return func(m *Machine) {
		m.recorder = rec
	}
}

// WithStageChangeHook registers a callback invoked after every applied
// transition, outside the machine lock. Used for operator notifications.
func WithStageChangeHook(fn func(from, to Stage)) Option {
	return func(m *Machine) {
		m.onChange = fn
	}
}

// New creates a machine for the tenant in the Unconfigured stage.
func New(tenantID uuid.UUID, verifier DomainVerifier, provisioner CertificateProvisioner, opts ...Option) *Machine {
	m := &Machine{
		tenantID:        tenantID,
		stage:           StageUnconfigured,
		verifier:        verifier,
		provisioner:     provisioner,
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
		log:             logger.NewDiscard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Resume creates a machine already positioned at the given stage with the
// given domain, for attempts restarted from persisted tenant state.
func Resume(tenantID uuid.UUID, domain string, stage Stage, verifier DomainVerifier, provisioner CertificateProvisioner, opts ...Option) *Machine {
	m := New(tenantID, verifier, provisioner, opts...)
	m.domain = NormalizeDomain(domain)
	m.stage = stage
	return m
}

// Start attaches a domain and moves Unconfigured → DNSPending, then issues
// one verification check immediately. Failed attempts may be restarted the
// same way (manual retry). Invoking Start again with the same domain while
// already in flight is a no-op.
func (m *Machine) Start(ctx context.Context, domain string) (Outcome, error) {
	domain = NormalizeDomain(domain)
	if err := ValidateDomain(domain); err != nil {
		return ignored(EventStart, m.Stage(), "invalid domain"), err
	}

	m.mu.Lock()
	switch m.stage {
	case StageUnconfigured, StageFailed:
		// allowed
	case StageDNSPending, StageDNSVerified, StageCertPending:
		if m.domain == domain {
			out := ignored(EventStart, m.stage, "attempt already in progress")
			m.mu.Unlock()
			return out, nil
		}
		out := ignored(EventStart, m.stage, "another domain is being onboarded")
		m.mu.Unlock()
		return out, nil
	default:
		out := ignored(EventStart, m.stage, "stage does not accept start")
		m.mu.Unlock()
		return out, nil
	}

	from := m.stage
	m.domain = domain
	m.failureReason = ""
	m.lastCheck = nil
	m.gen++ // results from any previous attempt are stale now
	m.transitionLocked(ctx, StageDNSPending, "domain attached")
	m.mu.Unlock()

	m.log.InfoContext(ctx, "domain onboarding started",
		logger.TenantID(m.tenantID), logger.Domain(domain))

	// One immediate verification check; its result is applied through the
	// regular DNS event so the transition rules stay in one place. A
	// transient check failure still leaves the attempt started.
	_, err := m.CheckDNS(ctx)
	return applied(EventStart, from, m.Stage(), "domain attached"), err
}

// CheckDNS performs a single verification check and applies the result:
// ok → DNSVerified, mismatch → stay in DNSPending with the result recorded,
// explicit error status → Failed. Transport failures leave the stage
// unchanged and return ErrVerificationUnavailable; the caller decides whether
// to re-check, manually or on a timer.
func (m *Machine) CheckDNS(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	if m.stage != StageDNSPending {
		out := ignored(EventCheckDNS, m.stage, "not awaiting dns verification")
		m.mu.Unlock()
		return out, nil
	}
	domain := m.domain
	gen := m.gen
	m.mu.Unlock()

	if domain == "" {
		return ignored(EventCheckDNS, StageDNSPending, "no domain"), ErrNoDomain
	}

	result, err := m.verifier.Check(ctx, domain)
	if err != nil {
		m.log.WarnContext(ctx, "dns check unavailable",
			logger.Domain(domain), logger.Error(err))
		return ignored(EventCheckDNS, m.Stage(), "transient verifier failure"),
			errors.Join(ErrVerificationUnavailable, err)
	}

	return m.applyDNSResult(ctx, gen, result), nil
}

func (m *Machine) applyDNSResult(ctx context.Context, gen uint64, result CheckResult) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.stage != StageDNSPending {
		return ignored(EventCheckDNS, m.stage, "stale dns result discarded")
	}

	m.lastCheck = &result
	m.lastCheckedAt = time.Now()

	switch result.Status {
	case CheckOK:
		m.transitionLocked(ctx, StageDNSVerified, "dns verified")
		return applied(EventCheckDNS, StageDNSPending, StageDNSVerified, "dns verified")
	case CheckError:
		m.failureReason = result.Detail
		m.transitionLocked(ctx, StageFailed, result.Detail)
		return applied(EventCheckDNS, StageDNSPending, StageFailed, result.Detail)
	default:
		// Mismatch keeps the stage; no automatic retry loop is started
		// by this event alone.
		return ignored(EventCheckDNS, StageDNSPending, "dns mismatch")
	}
}

// RequestCertificate requests issuance and begins periodic polling until a
// terminal certificate result. Valid from DNSVerified; in CertPending it is a
// no-op while polling is live, but re-arms polling when the previous poll was
// cancelled or lost to a restart, re-joining the provisioner's outstanding
// per-domain attempt rather than creating a duplicate.
func (m *Machine) RequestCertificate(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	switch m.stage {
	case StageCertPending:
		if m.pollCancel != nil {
			out := ignored(EventRequestCert, m.stage, "issuance already in progress")
			m.mu.Unlock()
			return out, nil
		}
		// Polling was cancelled or did not survive a restart; fall through
		// and pick the attempt back up.
	case StageActive:
		out := ignored(EventRequestCert, m.stage, "certificate already issued")
		m.mu.Unlock()
		return out, nil
	case StageDNSVerified:
		// allowed
	default:
		out := ignored(EventRequestCert, m.stage, "dns not verified")
		m.mu.Unlock()
		return out, nil
	}
	from := m.stage
	domain := m.domain
	gen := m.gen
	m.mu.Unlock()

	attemptID, err := m.provisioner.RequestIssuance(ctx, domain)
	if err != nil {
		m.log.WarnContext(ctx, "certificate request unavailable",
			logger.Domain(domain), logger.Error(err))
		return ignored(EventRequestCert, m.Stage(), "transient provisioner failure"),
			errors.Join(ErrProvisionerUnavailable, err)
	}

	m.mu.Lock()
	if gen != m.gen || m.stage != from {
		// Cancelled, removed, or restarted while the request was in flight.
		out := ignored(EventRequestCert, m.stage, "stale issuance request discarded")
		m.mu.Unlock()
		return out, nil
	}

	m.certAttemptID = attemptID
	m.transitionLocked(ctx, StageCertPending, "issuance requested")

	m.gen++
	pollGen := m.gen
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.pollCancel = cancel
	m.pollWG.Add(1)
	go m.pollLoop(pollCtx, pollGen, attemptID)
	m.mu.Unlock()

	m.log.InfoContext(ctx, "certificate issuance requested",
		logger.TenantID(m.tenantID), logger.Domain(domain), logger.AttemptID(attemptID))

	reason := "issuance requested"
	if from == StageCertPending {
		reason = "polling resumed"
	}
	return applied(EventRequestCert, from, StageCertPending, reason), nil
}

// pollLoop polls the provisioner until a terminal result, cancellation, or
// the attempt budget runs out. The next tick is armed only after the
// in-flight poll returns, so ticks never overlap and responses cannot be
// applied out of order.
func (m *Machine) pollLoop(ctx context.Context, gen uint64, attemptID string) {
	defer m.pollWG.Done()

	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		status, err := m.provisioner.PollStatus(ctx, attemptID)
		attempts++

		if ctx.Err() != nil {
			return
		}
		if !m.applyPollResult(ctx, gen, status, err, attempts) {
			return
		}

		timer.Reset(m.pollInterval)
	}
}

// applyPollResult applies one poll outcome and reports whether polling should
// continue. Results from a superseded generation are discarded without
// touching state.
func (m *Machine) applyPollResult(ctx context.Context, gen uint64, status IssuanceStatus, pollErr error, attempts int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.stage != StageCertPending {
		return false
	}

	if pollErr != nil {
		// Network failure on a single poll is a transient non-result:
		// log and keep polling, only an explicit error payload fails
		// the attempt.
		m.log.WarnContext(ctx, "certificate poll failed",
			logger.Domain(m.domain), logger.AttemptID(m.certAttemptID), logger.Error(pollErr))
		return m.checkPollBudgetLocked(ctx, attempts)
	}

	switch status.Status {
	case CertIssued:
		m.stopPollingLocked()
		m.transitionLocked(ctx, StageActive, "certificate issued")
		m.log.InfoContext(ctx, "domain active",
			logger.TenantID(m.tenantID), logger.Domain(m.domain))
		return false
	case CertError:
		m.failureReason = status.Detail
		m.stopPollingLocked()
		m.transitionLocked(ctx, StageFailed, status.Detail)
		m.log.ErrorContext(ctx, "certificate issuance failed",
			logger.Domain(m.domain), slog.String("detail", status.Detail))
		return false
	default:
		return m.checkPollBudgetLocked(ctx, attempts)
	}
}

func (m *Machine) checkPollBudgetLocked(ctx context.Context, attempts int) bool {
	if attempts < m.maxPollAttempts {
		return true
	}

	m.failureReason = "certificate issuance timed out"
	m.stopPollingLocked()
	m.transitionLocked(ctx, StageFailed, m.failureReason)
	m.log.ErrorContext(ctx, "certificate issuance timed out",
		logger.Domain(m.domain), slog.Int("attempts", attempts))
	return false
}

// Cancel stops any outstanding poll and invalidates in-flight collaborator
// calls without mutating the tenant's domain status beyond what was already
// confirmed. After Cancel returns, no response started before it — a poll
// tick, a DNS check, or an issuance request — can mutate state.
func (m *Machine) Cancel() Outcome {
	m.mu.Lock()
	if m.stage.IsTerminal() {
		out := ignored(EventCancel, m.stage, "attempt already terminal")
		m.mu.Unlock()
		return out
	}

	hadPoll := m.pollCancel != nil
	m.gen++ // invalidate in-flight results before waiting
	m.stopPollingLocked()
	stage := m.stage
	m.mu.Unlock()

	// Wait for the poll goroutine to exit so the no-mutation-after-return
	// guarantee holds.
	m.pollWG.Wait()

	reason := "nothing to cancel"
	if hadPoll {
		reason = "polling stopped"
	}
	return applied(EventCancel, stage, stage, reason)
}

// Remove detaches the domain on operator request. Valid from any stage except
// Removed; stops polling and records the terminal Removed stage.
func (m *Machine) Remove(ctx context.Context) Outcome {
	m.mu.Lock()
	if m.stage == StageRemoved {
		out := ignored(EventRemove, m.stage, "already removed")
		m.mu.Unlock()
		return out
	}

	from := m.stage
	m.gen++
	m.stopPollingLocked()
	m.domain = ""
	m.certAttemptID = ""
	m.transitionLocked(ctx, StageRemoved, "domain removed")
	m.mu.Unlock()

	m.pollWG.Wait()

	m.log.InfoContext(ctx, "domain removed", logger.TenantID(m.tenantID))
	return applied(EventRemove, from, StageRemoved, "domain removed")
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Snapshot returns a point-in-time view of the attempt.
func (m *Machine) Snapshot() Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()

	var check *CheckResult
	if m.lastCheck != nil {
		cp := *m.lastCheck
		check = &cp
	}

	return Attempt{
		TenantID:      m.tenantID,
		Domain:        m.domain,
		Stage:         m.stage,
		LastCheck:     check,
		LastCheckedAt: m.lastCheckedAt,
		CertAttemptID: m.certAttemptID,
		FailureReason: m.failureReason,
		Polling:       m.pollCancel != nil,
	}
}

// stopPollingLocked cancels the poll context. Callers must hold m.mu and have
// bumped gen first when in-flight results must be discarded.
func (m *Machine) stopPollingLocked() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

// transitionLocked records a confirmed stage change, persists it through the
// recorder, and schedules the change hook. Callers must hold m.mu.
func (m *Machine) transitionLocked(ctx context.Context, to Stage, reason string) {
	from := m.stage
	if from == to {
		return
	}
	m.stage = to

	if m.recorder != nil {
		// Persist with a detached context: a transition confirmed by a
		// collaborator must be recorded even if the triggering request
		// already went away.
		if err := m.recorder.RecordDomainStatus(context.WithoutCancel(ctx), to); err != nil {
			m.log.ErrorContext(ctx, "failed to record domain status",
				logger.TenantID(m.tenantID), logger.Stage(to.String()), logger.Error(err))
		}
	}

	if m.onChange != nil {
		go m.onChange(from, to)
	}

	m.log.DebugContext(ctx, "onboarding transition",
		logger.TenantID(m.tenantID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("reason", reason))
}
