package operator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitrinehq/vitrine/core/operator"
)

type memStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*operator.Operator
	byEmail map[string]*operator.Operator
}

func newMemStore() *memStore {
	return &memStore{
		byID:    make(map[uuid.UUID]*operator.Operator),
		byEmail: make(map[string]*operator.Operator),
	}
}

func (ms *memStore) ByID(ctx context.Context, id uuid.UUID) (*operator.Operator, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	op, ok := ms.byID[id]
	if !ok {
		return nil, operator.ErrNotFound
	}
	return op, nil
}

func (ms *memStore) ByEmail(ctx context.Context, email string) (*operator.Operator, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	op, ok := ms.byEmail[email]
	if !ok {
		return nil, operator.ErrNotFound
	}
	return op, nil
}

func (ms *memStore) Create(ctx context.Context, op *operator.Operator) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.byEmail[op.Email]; ok {
		return operator.ErrEmailTaken
	}
	ms.byID[op.ID] = op
	ms.byEmail[op.Email] = op
	return nil
}

func newService(t *testing.T) (*operator.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	return operator.NewService(store, operator.WithBcryptCost(bcrypt.MinCost)), store
}

func TestRegister(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	op, err := svc.Register(context.Background(), " Ana@Example.COM ", "correct horse", "Ana")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", op.Email)
	assert.NotEmpty(t, op.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(op.PasswordHash, []byte("correct horse")))
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "not-an-email", "correct horse", "")
	assert.ErrorIs(t, err, operator.ErrInvalidEmail)

	_, err = svc.Register(context.Background(), "ana@example.com", "short", "")
	assert.ErrorIs(t, err, operator.ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "ana@example.com", "correct horse", "Ana")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ana@example.com", "other password", "Ana")
	assert.ErrorIs(t, err, operator.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	registered, err := svc.Register(context.Background(), "ana@example.com", "correct horse", "Ana")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		op, err := svc.Login(context.Background(), "ana@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, op.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Login(context.Background(), "ana@example.com", "wrong")
		assert.ErrorIs(t, err, operator.ErrInvalidCredentials)
	})

	t.Run("unknown email indistinguishable from wrong password", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Login(context.Background(), "nobody@example.com", "correct horse")
		assert.ErrorIs(t, err, operator.ErrInvalidCredentials)
	})
}
