/**
 * @description
 * This file implements the Postgres-backed user repository. User creation is
 * transactional: the user row, the seeded account row, and the user.created
 * outbox row are committed together so a partial signup can never leak into
 * the database.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/user-service/internal/domain"
)

// PostgresUserRepository is the PostgreSQL implementation of the UserRepository.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new instance of PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUserWithAccount inserts the user, their account, and the outbox event
// in one transaction. The UNIQUE index on username is the source of truth for
// duplicate detection; a 23505 from either insert maps to ErrDuplicateUsername.
func (r *PostgresUserRepository) CreateUserWithAccount(ctx context.Context, user *domain.User, balance float64) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	userID := uuid.NewString()
	_, err = tx.Exec(ctx, `
        INSERT INTO users (id, username, password_hash, first_name, last_name)
        VALUES ($1, $2, $3, $4, $5)
    `, userID, user.Username, user.PasswordHash, user.FirstName, user.LastName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicateUsername
		}
		log.Printf("Error inserting user into database: %v", err)
		return "", err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO accounts (id, user_id, balance)
        VALUES ($1, $2, $3)
    `, uuid.NewString(), userID, balance)
	if err != nil {
		log.Printf("Error inserting account into database: %v", err)
		return "", err
	}

	event := domain.UserCreatedEvent{
		UserID:    userID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Balance:   balance,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO user_events_outbox (exchange, routing_key, payload)
        VALUES ($1, $2, $3)
    `, domain.UserEventsExchange, domain.UserCreatedRoutingKey, string(payload))
	if err != nil {
		log.Printf("Error inserting outbox event: %v", err)
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	log.Printf("Successfully created user with ID: %s", userID)
	return userID, nil
}

// FindByUsername looks up a user by their login handle.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `
        SELECT id, username, password_hash, first_name, last_name, created_at, updated_at
        FROM users
        WHERE username = $1
    `, username)
}

// FindByID looks up a user by their ID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `
        SELECT id, username, password_hash, first_name, last_name, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to the user's own record. COALESCE keeps
// any column whose new value is NULL.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, id string, passwordHash, firstName, lastName *string) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE users
        SET password_hash = COALESCE($1, password_hash),
            first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            updated_at = NOW()
        WHERE id = $4
    `, passwordHash, firstName, lastName, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SearchUsers runs the directory query: everyone but the caller whose first or
// last name contains the filter, matched case-insensitively.
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, excludeID, filter string) ([]domain.UserSummary, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, username, first_name, last_name
        FROM users
        WHERE id <> $1
          AND (first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%')
    `, excludeID, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.UserSummary{}
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
