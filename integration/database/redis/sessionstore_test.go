package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrinehq/vitrine/core/session"
	"github.com/vitrinehq/vitrine/integration/database/redis"
)

func newTestStore(t *testing.T) (*redis.SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewSessionStore(client), mr
}

func newSession(t *testing.T, ttl time.Duration) session.Session {
	t.Helper()
	sess, err := session.New(session.NewParams{IP: "203.0.113.9", UserAgent: "test"}, ttl)
	require.NoError(t, err)
	return sess
}

func TestSessionStoreSaveAndGet(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, &sess))

	got, err := store.GetByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, "203.0.113.9", got.IP)
	assert.False(t, got.IsModified())
}

func TestSessionStoreUnknownToken(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	_, err := store.GetByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStoreRotationInvalidatesOldToken(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, &sess))
	oldToken := sess.Token

	userID := sess.ID
	require.NoError(t, sess.Authenticate(userID, userID))
	require.NotEqual(t, oldToken, sess.Token)
	require.NoError(t, store.Save(ctx, &sess))

	_, err := store.GetByToken(ctx, oldToken)
	assert.ErrorIs(t, err, session.ErrNotFound)

	got, err := store.GetByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestSessionStoreDelete(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, &sess))

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err := store.GetByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// Deleting an already-gone session is not an error.
	assert.NoError(t, store.Delete(ctx, sess.ID))
}

func TestSessionStoreExpiry(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	ctx := context.Background()

	sess := newSession(t, time.Minute)
	require.NoError(t, store.Save(ctx, &sess))

	mr.FastForward(2 * time.Minute)

	_, err := store.GetByToken(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStoreSaveExpired(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	sess := newSession(t, time.Hour)
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	err := store.Save(context.Background(), &sess)
	assert.ErrorIs(t, err, session.ErrExpired)
}
