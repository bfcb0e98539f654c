package onboarding

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehq/vitrine/core/tenant"
)

// Stage is the attempt's position in the onboarding flow. It mirrors the
// tenant's persisted DomainStatus so confirmed transitions map one-to-one
// onto directory updates.
type Stage = tenant.DomainStatus

const (
	StageUnconfigured = tenant.DomainUnconfigured
	StageDNSPending   = tenant.DomainDNSPending
	StageDNSVerified  = tenant.DomainDNSVerified
	StageCertPending  = tenant.DomainCertPending
	StageActive       = tenant.DomainActive
	StageFailed       = tenant.DomainFailed
	StageRemoved      = tenant.DomainRemoved
)

// Event identifies a state machine input for reporting purposes.
type Event string

const (
	EventStart       Event = "start"
	EventCheckDNS    Event = "check_dns"
	EventRequestCert Event = "request_certificate"
	EventPollResult  Event = "cert_poll_result"
	EventCancel      Event = "cancel"
	EventRemove      Event = "remove"
)

// Outcome reports how an event was handled. Events arriving in a stage where
// they are not listed in the transition table are ignored (Applied false,
// Reason set), never an error: the transition table is total.
type Outcome struct {
	Event   Event
	Applied bool
	From    Stage
	To      Stage
	Reason  string
}

func ignored(event Event, stage Stage, reason string) Outcome {
	return Outcome{Event: event, Applied: false, From: stage, To: stage, Reason: reason}
}

func applied(event Event, from, to Stage, reason string) Outcome {
	return Outcome{Event: event, Applied: true, From: from, To: to, Reason: reason}
}

// Attempt is a point-in-time snapshot of a machine, safe to serialize for the
// status endpoint. The attempt itself is ephemeral: it lives only as long as
// the owning operator session keeps it.
type Attempt struct {
	TenantID      uuid.UUID    `json:"tenant_id"`
	Domain        string       `json:"domain"`
	Stage         Stage        `json:"stage"`
	LastCheck     *CheckResult `json:"last_check,omitempty"`
	LastCheckedAt time.Time    `json:"last_checked_at,omitzero"`
	CertAttemptID string       `json:"cert_attempt_id,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	Polling       bool         `json:"polling"`
}
