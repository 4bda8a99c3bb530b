package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/user-service/internal/domain"
)

// PostgresAccountRepository is the PostgreSQL implementation of the AccountRepository.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new instance of PostgresAccountRepository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// FindByUserID retrieves the signup-provisioned account for a user.
func (r *PostgresAccountRepository) FindByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.QueryRow(ctx, `
        SELECT id, user_id, balance, created_at
        FROM accounts
        WHERE user_id = $1
    `, userID).Scan(
		&account.ID,
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}
