package session

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultTTL is the session idle timeout.
	DefaultTTL = 24 * time.Hour

	// DefaultTouchInterval throttles expiration-extension writes.
	DefaultTouchInterval = 5 * time.Minute
)

// Manager handles session lifecycle: creation, retrieval with expiration
// validation, and persistence. The touch interval determines how often
// sessions are extended on access, reducing store writes.
type Manager struct {
	store         Store
	ttl           time.Duration
	touchInterval time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL sets the session time-to-live.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithTouchInterval sets the minimum time between expiration extensions.
// Zero disables throttling so every access extends the session.
func WithTouchInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval >= 0 {
			m.touchInterval = interval
		}
	}
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:         store,
		ttl:           DefaultTTL,
		touchInterval: DefaultTouchInterval,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Begin creates a fresh anonymous session and persists it.
func (m *Manager) Begin(ctx context.Context, params NewParams) (Session, error) {
	sess, err := New(params, m.ttl)
	if err != nil {
		return Session{}, err
	}

	if err := m.store.Save(ctx, &sess); err != nil {
		return Session{}, errors.Join(ErrSaveSession, err)
	}

	return sess, nil
}

// GetByToken retrieves a session by token and validates expiration.
// The distinction between ErrNotFound and ErrExpired lets callers tell
// "known unauthenticated" from a stale-but-restorable state.
func (m *Manager) GetByToken(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNotFound
	}

	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return Session{}, err
	}

	if sess.IsExpired() {
		return Session{}, ErrExpired
	}

	return *sess, nil
}

// Store persists the session according to its state. Deleted sessions are
// removed and ErrNotAuthenticated is returned to signal transports to clear
// their credentials.
func (m *Manager) Store(ctx context.Context, sess Session) error {
	if sess.IsDeleted() {
		if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrDeleteSession, err)
		}
		return ErrNotAuthenticated
	}

	sess.Touch(m.ttl, m.touchInterval)

	if sess.IsModified() {
		if err := m.store.Save(ctx, &sess); err != nil {
			return errors.Join(ErrSaveSession, err)
		}
	}

	return nil
}

// CleanupExpired removes all expired sessions from the store. Should be
// called periodically to keep the store bounded.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

// TTL returns the configured session time-to-live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
