package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teplocom/support-triage/internal/domain"
)

// OperatorRepository encapsulates operator account persistence.
type OperatorRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Operator, error)
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository instantiates repository.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

func (r *operatorRepository) GetByID(ctx context.Context, id int64) (*domain.Operator, error) {
	const query = `SELECT id, email, full_name, password_hash, created_at FROM operators WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	const query = `SELECT id, email, full_name, password_hash, created_at FROM operators WHERE email=$1`
	return r.fetch(ctx, query, email)
}

func (r *operatorRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE operators SET password_hash=$1 WHERE id=$2`, passwordHash, id)
	return err
}

func (r *operatorRepository) fetch(ctx context.Context, query string, arg any) (*domain.Operator, error) {
	var op domain.Operator
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&op.ID,
		&op.Email,
		&op.FullName,
		&op.PasswordHash,
		&op.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &op, nil
}
