package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vitrinehq/vitrine/core/session"
)

const (
	sessionTokenKeyPrefix = "session:token:"
	sessionIDKeyPrefix    = "session:id:"
)

// SessionStore implements session.Store on Redis. Sessions are stored under
// their bearer token with a TTL matching the expiration time; a secondary
// id-to-token key supports deletion by session ID and cleans up superseded
// tokens after rotation.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a session store backed by client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// sessionRecord is the wire form of a session.
type sessionRecord struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetByToken returns the session stored under token.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	payload, err := s.client.Get(ctx, sessionTokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	sess := session.Session{
		ID:        rec.ID,
		Token:     rec.Token,
		UserID:    rec.UserID,
		TenantID:  rec.TenantID,
		IP:        rec.IP,
		UserAgent: rec.UserAgent,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	return &sess, nil
}

// Save writes the session under its token with a TTL until expiration. A
// previous token for the same session ID (rotated on authentication) is
// removed so it can no longer be presented.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return session.ErrExpired
	}

	rec := sessionRecord{
		ID:        sess.ID,
		Token:     sess.Token,
		UserID:    sess.UserID,
		TenantID:  sess.TenantID,
		IP:        sess.IP,
		UserAgent: sess.UserAgent,
		ExpiresAt: sess.ExpiresAt,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	idKey := sessionIDKeyPrefix + sess.ID.String()

	prevToken, err := s.client.Get(ctx, idKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get previous token: %w", err)
	}

	pipe := s.client.TxPipeline()
	if prevToken != "" && prevToken != sess.Token {
		pipe.Del(ctx, sessionTokenKeyPrefix+prevToken)
	}
	pipe.Set(ctx, sessionTokenKeyPrefix+sess.Token, payload, ttl)
	pipe.Set(ctx, idKey, sess.Token, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session with the given ID.
func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	idKey := sessionIDKeyPrefix + id.String()

	token, err := s.client.Get(ctx, idKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("get session token: %w", err)
	}

	if err := s.client.Del(ctx, sessionTokenKeyPrefix+token, idKey).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys through key TTLs.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

var _ session.Store = (*SessionStore)(nil)
