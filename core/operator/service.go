package operator

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitrinehq/vitrine/core/logger"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Store defines operator persistence.
type Store interface {
	ByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	ByEmail(ctx context.Context, email string) (*Operator, error)
	Create(ctx context.Context, op *Operator) error
}

// Service handles operator registration and password login.
type Service struct {
	store Store
	cost  int
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost. Lowered in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates an operator service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		cost:  bcrypt.DefaultCost,
		log:   logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an operator account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Operator, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	op := &Operator{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, op); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "operator registered", slog.String("operator_id", op.ID.String()))
	return op, nil
}

// Login verifies the email and password and returns the operator.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Operator, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	op, err := s.store.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(op.PasswordHash, []byte(password)); err != nil {
		s.log.DebugContext(ctx, "login rejected", slog.String("operator_id", op.ID.String()))
		return nil, ErrInvalidCredentials
	}
	return op, nil
}

// ByID returns the operator with the given ID.
func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*Operator, error) {
	return s.store.ByID(ctx, id)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
