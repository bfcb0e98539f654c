package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/onboarding"
	"github.com/vitrinehq/vitrine/core/tenant"
	"github.com/vitrinehq/vitrine/middleware"
)

// sessionTenant loads the tenant bound to the authenticated session.
func (h *Handlers) sessionTenant(w http.ResponseWriter, r *http.Request) *tenant.Tenant {
	sess, ok := middleware.GetSession(r.Context())
	if !ok || !sess.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return nil
	}

	t, err := h.tenants.ByID(r.Context(), sess.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, err)
			return nil
		}
		h.log.ErrorContext(r.Context(), "tenant lookup failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("tenant lookup failed"))
		return nil
	}
	return t
}

// machineFor returns the tenant's live onboarding machine, creating one
// positioned at the tenant's persisted stage. Confirmed transitions persist
// through the tenant store; operator notifications hang off the stage hook.
func (h *Handlers) machineFor(t *tenant.Tenant) *onboarding.Machine {
	return h.registry.GetOrCreate(t.ID, func() *onboarding.Machine {
		tenantID := t.ID
		recorder := onboarding.RecorderFunc(func(ctx context.Context, stage onboarding.Stage) error {
			return h.tenants.UpdateDomainStatus(ctx, tenantID, stage)
		})

		var m *onboarding.Machine
		opts := []onboarding.Option{
			onboarding.WithStatusRecorder(recorder),
			onboarding.WithLogger(h.log),
		}
		if h.notifier != nil {
			opts = append(opts, onboarding.WithStageChangeHook(
				h.notifier.StageHook(t, func() string {
					return m.Snapshot().FailureReason
				})))
		}

		if t.HasCustomDomain() && !t.DomainStatus.IsTerminal() && t.DomainStatus != tenant.DomainUnconfigured {
			m = onboarding.Resume(tenantID, t.CustomDomain, t.DomainStatus, h.verifier, h.provisioner, opts...)
		} else {
			m = onboarding.New(tenantID, h.verifier, h.provisioner, opts...)
		}
		return m
	})
}

type attachDomainRequest struct {
	Domain string `json:"domain"`
}

type outcomeResponse struct {
	Applied bool               `json:"applied"`
	From    onboarding.Stage   `json:"from"`
	To      onboarding.Stage   `json:"to"`
	Reason  string             `json:"reason,omitempty"`
	Attempt onboarding.Attempt `json:"attempt"`
}

func (h *Handlers) outcome(m *onboarding.Machine, out onboarding.Outcome) outcomeResponse {
	return outcomeResponse{
		Applied: out.Applied,
		From:    out.From,
		To:      out.To,
		Reason:  out.Reason,
		Attempt: m.Snapshot(),
	}
}

// handleAttachDomain claims the domain for the tenant and starts onboarding.
// A transient DNS failure on the immediate first check still counts as
// started; the response carries the attempt so the dashboard can render it.
func (h *Handlers) handleAttachDomain(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	var req attachDomainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	domain := onboarding.NormalizeDomain(req.Domain)
	if err := onboarding.ValidateDomain(domain); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.tenants.ClaimCustomDomain(r.Context(), t.ID, domain); err != nil {
		switch {
		case errors.Is(err, tenant.ErrDomainTaken):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, tenant.ErrDomainBound):
			writeError(w, http.StatusConflict, err)
		default:
			h.log.ErrorContext(r.Context(), "domain claim failed",
				logger.TenantID(t.ID), logger.Domain(domain), logger.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("domain claim failed"))
		}
		return
	}
	// The machine is built from the pre-claim stage so Start performs the
	// attach transition (and the immediate DNS check) itself.
	t.CustomDomain = domain

	m := h.machineFor(t)
	out, err := m.Start(r.Context(), domain)
	if err != nil && !errors.Is(err, onboarding.ErrVerificationUnavailable) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusAccepted, h.outcome(m, out))
}

// handleDomainStatus reports the live attempt, or a synthesized snapshot from
// persisted tenant state when no machine is in memory.
func (h *Handlers) handleDomainStatus(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	if m := h.registry.Get(t.ID); m != nil {
		writeJSON(w, http.StatusOK, m.Snapshot())
		return
	}

	writeJSON(w, http.StatusOK, onboarding.Attempt{
		TenantID: t.ID,
		Domain:   t.CustomDomain,
		Stage:    t.DomainStatus,
	})
}

// handleCheckDNS triggers one on-demand verification check.
func (h *Handlers) handleCheckDNS(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	m := h.machineFor(t)
	out, err := m.CheckDNS(r.Context())
	if err != nil {
		if errors.Is(err, onboarding.ErrVerificationUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.outcome(m, out))
}

// handleRequestCertificate moves a DNS-verified attempt into certificate
// issuance and starts background polling.
func (h *Handlers) handleRequestCertificate(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	m := h.machineFor(t)
	out, err := m.RequestCertificate(r.Context())
	if err != nil {
		if errors.Is(err, onboarding.ErrProvisionerUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.outcome(m, out))
}

// handleCancelOnboarding stops background polling without touching the
// persisted stage.
func (h *Handlers) handleCancelOnboarding(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	if m := h.registry.Get(t.ID); m != nil {
		out := m.Cancel()
		writeJSON(w, http.StatusOK, h.outcome(m, out))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveDomain detaches the custom domain entirely. Terminal: a new
// attempt later starts from scratch with a fresh machine.
func (h *Handlers) handleRemoveDomain(w http.ResponseWriter, r *http.Request) {
	t := h.sessionTenant(w, r)
	if t == nil {
		return
	}

	if m := h.registry.Get(t.ID); m != nil {
		m.Remove(r.Context())
	}
	h.registry.Drop(t.ID)

	if err := h.tenants.ReleaseCustomDomain(r.Context(), t.ID); err != nil {
		h.log.ErrorContext(r.Context(), "domain release failed",
			logger.TenantID(t.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("domain release failed"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
