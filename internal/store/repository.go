/**
 * @description
 * This file defines the repository interfaces for the user-service's data
 * access layer. Handlers and services depend on these interfaces; the
 * Postgres implementations live alongside in this package.
 */
package store

import (
	"context"
	"errors"

	"github.com/transfa/user-service/internal/domain"
)

// Sentinel errors surfaced by the repositories. Handlers map these to
// transport-level responses.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

// UserRepository defines the interface for user data storage.
type UserRepository interface {
	// CreateUserWithAccount inserts the user, their account, and the
	// user.created outbox row in a single transaction. It returns the new
	// user's ID, or ErrDuplicateUsername if the username is already taken.
	CreateUserWithAccount(ctx context.Context, user *domain.User, balance float64) (string, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateUser applies a partial update; nil fields are left untouched.
	UpdateUser(ctx context.Context, id string, passwordHash, firstName, lastName *string) error
	// SearchUsers returns every user other than excludeID whose first or last
	// name contains filter case-insensitively. An empty filter matches all.
	SearchUsers(ctx context.Context, excludeID, filter string) ([]domain.UserSummary, error)
}

// AccountRepository defines the interface for account data storage.
type AccountRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Account, error)
}

// OutboxRepository manages the pending user event rows awaiting publication.
type OutboxRepository interface {
	ClaimMessages(ctx context.Context, batchSize int, staleAfterSeconds int) ([]OutboxMessage, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, retryAfterSeconds int, reason string) error
}
