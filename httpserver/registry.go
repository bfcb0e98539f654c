package httpserver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vitrinehq/vitrine/core/onboarding"
)

// AttemptRegistry holds at most one live onboarding machine per tenant.
// Concurrent requests for the same tenant share the machine, so duplicate
// "start" clicks cannot spawn parallel attempts.
type AttemptRegistry struct {
	mu       sync.Mutex
	machines map[uuid.UUID]*onboarding.Machine
}

// NewAttemptRegistry creates an empty registry.
func NewAttemptRegistry() *AttemptRegistry {
	return &AttemptRegistry{machines: make(map[uuid.UUID]*onboarding.Machine)}
}

// Get returns the tenant's machine, or nil when no attempt is live.
func (r *AttemptRegistry) Get(tenantID uuid.UUID) *onboarding.Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machines[tenantID]
}

// GetOrCreate returns the tenant's machine, calling build under the registry
// lock on first use so concurrent requests cannot race a second machine into
// existence.
func (r *AttemptRegistry) GetOrCreate(tenantID uuid.UUID, build func() *onboarding.Machine) *onboarding.Machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.machines[tenantID]; ok {
		return m
	}
	m := build()
	r.machines[tenantID] = m
	return m
}

// Drop cancels and removes the tenant's machine. Called when the domain is
// detached.
func (r *AttemptRegistry) Drop(tenantID uuid.UUID) {
	r.mu.Lock()
	m, ok := r.machines[tenantID]
	delete(r.machines, tenantID)
	r.mu.Unlock()

	if ok {
		m.Cancel()
	}
}
