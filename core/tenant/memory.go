package tenant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in memory for tests and local development.
// Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Tenant
	bySlug   map[string]uuid.UUID
	byDomain map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory tenant store, optionally seeded
// with the given tenants.
func NewMemoryStore(seed ...*Tenant) *MemoryStore {
	ms := &MemoryStore{
		byID:     make(map[uuid.UUID]*Tenant),
		bySlug:   make(map[string]uuid.UUID),
		byDomain: make(map[string]uuid.UUID),
	}

	for _, t := range seed {
		cp := *t
		ms.byID[cp.ID] = &cp
		ms.bySlug[cp.PlatformSlug] = cp.ID
		if cp.CustomDomain != "" {
			ms.byDomain[cp.CustomDomain] = cp.ID
		}
	}

	return ms
}

func (ms *MemoryStore) BySlug(ctx context.Context, slug string) (*Tenant, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	id, ok := ms.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return ms.clone(id)
}

func (ms *MemoryStore) ByCustomDomain(ctx context.Context, domain string) (*Tenant, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	id, ok := ms.byDomain[strings.ToLower(domain)]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return ms.clone(id)
}

func (ms *MemoryStore) ByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.clone(id)
}

func (ms *MemoryStore) ByOwner(ctx context.Context, ownerID uuid.UUID) (*Tenant, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for id, t := range ms.byID {
		if t.OwnerID == ownerID {
			return ms.clone(id)
		}
	}
	return nil, ErrTenantNotFound
}

func (ms *MemoryStore) Create(ctx context.Context, t *Tenant) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	slug := strings.ToLower(t.PlatformSlug)
	if _, exists := ms.bySlug[slug]; exists {
		return ErrSlugTaken
	}

	cp := *t
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.PlatformSlug = slug
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	ms.byID[cp.ID] = &cp
	ms.bySlug[slug] = cp.ID
	if cp.CustomDomain != "" {
		ms.byDomain[strings.ToLower(cp.CustomDomain)] = cp.ID
	}

	t.ID = cp.ID
	return nil
}

func (ms *MemoryStore) ClaimCustomDomain(ctx context.Context, tenantID uuid.UUID, domain string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}

	domain = strings.ToLower(domain)
	if owner, claimed := ms.byDomain[domain]; claimed && owner != tenantID {
		return ErrDomainTaken
	}
	if t.CustomDomain != "" && t.CustomDomain != domain {
		return ErrDomainBound
	}

	t.CustomDomain = domain
	t.DomainStatus = DomainDNSPending
	t.UpdatedAt = time.Now()
	ms.byDomain[domain] = tenantID
	return nil
}

func (ms *MemoryStore) ReleaseCustomDomain(ctx context.Context, tenantID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}

	if t.CustomDomain != "" {
		delete(ms.byDomain, t.CustomDomain)
	}
	t.CustomDomain = ""
	t.DomainStatus = DomainRemoved
	t.UpdatedAt = time.Now()
	return nil
}

func (ms *MemoryStore) UpdateDomainStatus(ctx context.Context, tenantID uuid.UUID, status DomainStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}

	t.DomainStatus = status
	t.UpdatedAt = time.Now()
	return nil
}

func (ms *MemoryStore) UpdateProfile(ctx context.Context, tenantID uuid.UUID, p Profile) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}

	p.Apply(t)
	t.UpdatedAt = time.Now()
	return nil
}

// clone returns a copy so callers cannot mutate stored records. Must be called
// with at least a read lock held.
func (ms *MemoryStore) clone(id uuid.UUID) (*Tenant, error) {
	t, ok := ms.byID[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}
