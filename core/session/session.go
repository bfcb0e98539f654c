package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session represents an authenticated operator's browser session. At most one
// session is active per operator; signing in again rotates the token and
// supersedes the previous one.
type Session struct {
	// ID is the stable session identifier that never changes during the
	// session lifecycle.
	ID uuid.UUID

	// Token is the cryptographically secure bearer token (32 bytes,
	// base64url) attached to admin-surface requests.
	Token string

	// UserID identifies the authenticated operator (uuid.Nil when
	// anonymous).
	UserID uuid.UUID

	// TenantID is the tenant the operator administers. Gates the
	// onboarding workflow and admin surfaces.
	TenantID uuid.UUID

	IP        string
	UserAgent string

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt time.Time

	// modified tracks whether the session needs saving.
	modified bool
}

// NewParams carries request metadata captured at session creation.
type NewParams struct {
	IP        string
	UserAgent string
}

// New creates an anonymous session with a generated token and ID, marked
// modified and ready to be saved.
func New(params NewParams, ttl time.Duration) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now()
	return Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    uuid.Nil,
		TenantID:  uuid.Nil,
		IP:        params.IP,
		UserAgent: params.UserAgent,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
		modified:  true,
	}, nil
}

// Authenticate binds the session to an operator and their tenant. The token
// is rotated while the session ID is preserved.
func (s *Session) Authenticate(userID, tenantID uuid.UUID) error {
	if err := s.rotateToken(); err != nil {
		return err
	}
	s.UserID = userID
	s.TenantID = tenantID
	s.UpdatedAt = time.Now()
	s.modified = true
	return nil
}

// Logout marks the session for deletion. Derived authorization state is
// cleared synchronously by the store on save.
func (s *Session) Logout() {
	s.DeletedAt = time.Now()
	s.modified = true
}

// Touch extends expiration if the touch interval has elapsed, throttling
// store writes on busy admin surfaces.
func (s *Session) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		now := time.Now()
		s.ExpiresAt = now.Add(ttl)
		s.UpdatedAt = now
		s.modified = true
	}
}

// IsAuthenticated reports whether the session belongs to a signed-in
// operator.
func (s Session) IsAuthenticated() bool {
	return s.UserID != uuid.Nil && s.Token != ""
}

// IsDeleted reports whether the session was marked for deletion.
func (s Session) IsDeleted() bool {
	return !s.DeletedAt.IsZero()
}

// IsExpired reports whether the session has expired.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsModified reports whether the session has unsaved changes.
func (s Session) IsModified() bool {
	return s.modified
}

func (s *Session) rotateToken() error {
	token, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}
	s.Token = token
	s.modified = true
	return nil
}

// generateToken creates a 32-byte (256-bit) random token encoded as
// URL-safe base64 without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
