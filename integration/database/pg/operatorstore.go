package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrinehq/vitrine/core/operator"
)

// OperatorStore implements operator.Store on PostgreSQL.
type OperatorStore struct {
	pool *pgxpool.Pool
}

// NewOperatorStore creates an operator store backed by pool.
func NewOperatorStore(pool *pgxpool.Pool) *OperatorStore {
	return &OperatorStore{pool: pool}
}

func scanOperator(row pgx.Row) (*operator.Operator, error) {
	var op operator.Operator
	err := row.Scan(&op.ID, &op.Email, &op.PasswordHash, &op.Name, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, operator.ErrNotFound
		}
		return nil, fmt.Errorf("scan operator: %w", err)
	}
	return &op, nil
}

// ByID returns the operator with the given ID.
func (s *OperatorStore) ByID(ctx context.Context, id uuid.UUID) (*operator.Operator, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM operators WHERE id = $1`, id)
	return scanOperator(row)
}

// ByEmail returns the operator with the given email.
func (s *OperatorStore) ByEmail(ctx context.Context, email string) (*operator.Operator, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM operators WHERE email = $1`, email)
	return scanOperator(row)
}

// Create persists a new operator account.
func (s *OperatorStore) Create(ctx context.Context, op *operator.Operator) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO operators (id, email, password_hash, name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		op.ID, op.Email, op.PasswordHash, op.Name, op.CreatedAt, op.UpdatedAt,
	)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return operator.ErrEmailTaken
		}
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

var _ operator.Store = (*OperatorStore)(nil)
