package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/gym-booking/internal/domain"
)

// ErrOutboxMessageNotFound is returned when a status update matches no row
var ErrOutboxMessageNotFound = errors.New("outbox message not found")

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

const outboxColumns = `
	id, aggregate_type, aggregate_id, event_type,
	payload, topic, partition_key, status,
	retry_count, max_retries, last_error,
	created_at, processed_at, published_at`

// CreateTx creates a new outbox message within a transaction
func (r *PostgresOutboxRepository) CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type,
			payload, topic, partition_key, status,
			retry_count, max_retries, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := tx.Exec(ctx, query,
		msg.ID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Payload,
		msg.Topic,
		msg.PartitionKey,
		msg.Status.String(),
		msg.RetryCount,
		msg.MaxRetries,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox message in transaction: %w", err)
	}
	return nil
}

// GetPendingMessages claims pending messages. A claim stamps processed_at, so
// another relay instance skips the row until lease has passed.
func (r *PostgresOutboxRepository) GetPendingMessages(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxMessage, error) {
	query := `
		UPDATE outbox SET processed_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox
			WHERE status = 'pending'
				AND (processed_at IS NULL OR processed_at < NOW() - make_interval(secs => $2::float8))
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	return r.claim(ctx, query, limit, lease)
}

// GetFailedMessages claims failed messages that still have retries left and
// were last attempted more than retryAfter ago
func (r *PostgresOutboxRepository) GetFailedMessages(ctx context.Context, limit int, retryAfter time.Duration) ([]*domain.OutboxMessage, error) {
	query := `
		UPDATE outbox SET processed_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox
			WHERE status = 'failed'
				AND retry_count < max_retries
				AND (processed_at IS NULL OR processed_at < NOW() - make_interval(secs => $2::float8))
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	return r.claim(ctx, query, limit, retryAfter)
}

func (r *PostgresOutboxRepository) claim(ctx context.Context, query string, limit int, age time.Duration) ([]*domain.OutboxMessage, error) {
	rows, err := r.pool.Query(ctx, query, limit, age.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanOutboxMessages(rows)
	if err != nil {
		return nil, err
	}
	// RETURNING does not preserve the subquery order
	sortByCreatedAt(messages)
	return messages, nil
}

// MarkAsPublished marks a message as successfully published
func (r *PostgresOutboxRepository) MarkAsPublished(ctx context.Context, id string) error {
	query := `
		UPDATE outbox SET
			status = 'published',
			processed_at = $2,
			published_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark message as published: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOutboxMessageNotFound
	}
	return nil
}

// MarkAsFailed marks a message as failed
func (r *PostgresOutboxRepository) MarkAsFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE outbox SET
			status = 'failed',
			last_error = $2,
			retry_count = retry_count + 1,
			processed_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, errMsg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark message as failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOutboxMessageNotFound
	}
	return nil
}

// DeletePublished deletes old published messages for cleanup
func (r *PostgresOutboxRepository) DeletePublished(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	result, err := r.pool.Exec(ctx,
		`DELETE FROM outbox WHERE status = 'published' AND published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete published messages: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanOutboxMessages(rows pgx.Rows) ([]*domain.OutboxMessage, error) {
	var messages []*domain.OutboxMessage

	for rows.Next() {
		msg := &domain.OutboxMessage{}
		var (
			status    string
			lastError *string
		)

		err := rows.Scan(
			&msg.ID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.Topic,
			&msg.PartitionKey,
			&status,
			&msg.RetryCount,
			&msg.MaxRetries,
			&lastError,
			&msg.CreatedAt,
			&msg.ProcessedAt,
			&msg.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		msg.Status = domain.OutboxStatus(status)
		if lastError != nil {
			msg.LastError = *lastError
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}
	return messages, nil
}

func sortByCreatedAt(messages []*domain.OutboxMessage) {
	slices.SortStableFunc(messages, func(a, b *domain.OutboxMessage) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

var _ OutboxRepository = (*PostgresOutboxRepository)(nil)
