/**
 * @description
 * This file implements the Postgres-backed outbox for user lifecycle events.
 * Signup writes a pending row in the same transaction that creates the user;
 * the dispatcher claims batches of pending rows, publishes them to RabbitMQ,
 * and records the outcome here.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxMessage is a pending event claimed for publication.
type OutboxMessage struct {
	ID         int64
	Exchange   string
	RoutingKey string
	Payload    []byte
	Attempts   int
}

// PostgresOutboxRepository is the PostgreSQL implementation of the OutboxRepository.
type PostgresOutboxRepository struct {
	db *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new instance of PostgresOutboxRepository.
func NewPostgresOutboxRepository(db *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

// ClaimMessages atomically marks a batch of due rows as processing and returns
// them. Rows stuck in processing longer than staleAfterSeconds are reclaimed,
// so a crashed dispatcher cannot strand events. FOR UPDATE SKIP LOCKED keeps
// concurrent dispatchers from claiming the same rows.
func (r *PostgresOutboxRepository) ClaimMessages(ctx context.Context, batchSize int, staleAfterSeconds int) ([]OutboxMessage, error) {
	rows, err := r.db.Query(ctx, `
        UPDATE user_events_outbox
        SET status = 'processing', claimed_at = NOW(), attempts = attempts + 1
        WHERE id IN (
            SELECT id FROM user_events_outbox
            WHERE (status = 'pending' AND next_attempt_at <= NOW())
               OR (status = 'processing' AND claimed_at < NOW() - make_interval(secs => $2))
            ORDER BY id
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, exchange, routing_key, payload, attempts
    `, batchSize, staleAfterSeconds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		if err := rows.Scan(&m.ID, &m.Exchange, &m.RoutingKey, &m.Payload, &m.Attempts); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkPublished records a successful publication.
func (r *PostgresOutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
        UPDATE user_events_outbox
        SET status = 'published', published_at = NOW()
        WHERE id = $1
    `, id)
	return err
}

// MarkFailed schedules a retry after the given delay and keeps the failure
// reason for operators.
func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id int64, retryAfterSeconds int, reason string) error {
	_, err := r.db.Exec(ctx, `
        UPDATE user_events_outbox
        SET status = 'pending',
            next_attempt_at = NOW() + make_interval(secs => $2),
            last_error = $3
        WHERE id = $1
    `, id, retryAfterSeconds, reason)
	return err
}
