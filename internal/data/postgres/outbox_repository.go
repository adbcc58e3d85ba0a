package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/transaction-ingestion/internal/domain/outbox"
	"github.com/transaction-ingestion/internal/platform/persistence"
)

const uniqueViolation = "23505"

const outboxColumns = "id, batch_id, payload, status, attempts, created_at, last_attempt_at"

// OutboxRepository stores completed batch reports in batch_outbox until the poller
// copies them to the report store
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx, so the outbox row commits together with the batch rows
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the message and sets its ID. A second message for the same batch
// returns ErrDuplicateMessage.
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx,
		`INSERT INTO batch_outbox (batch_id, payload, status, attempts, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		message.BatchID,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		r.logger.Warn("Batch already has an outbox message", "batch_id", message.BatchID.String())
		return outbox.ErrDuplicateMessage{BatchID: message.BatchID}
	}

	r.logger.Error("Failed to insert outbox message", "batch_id", message.BatchID.String(), "error", err)
	return fmt.Errorf("failed to create outbox message: %w", err)
}

// GetPending returns up to limit PENDING messages, oldest batch first
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx,
		`SELECT `+outboxColumns+` FROM batch_outbox WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		outbox.StatusPending, limit,
	)
	if err != nil {
		r.logger.Error("Failed to load pending outbox messages", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		message, err := scanOutboxMessage(rows)
		if err != nil {
			r.logger.Error("Failed to scan outbox message", "error", err)
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over outbox messages: %w", err)
	}

	return messages, nil
}

// UpdateStatus moves the message to status. Returns ErrMessageNotFound for an unknown id.
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	return r.touch(ctx, id, "update outbox message status",
		`UPDATE batch_outbox SET status = $1, last_attempt_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
}

// IncrementAttempts records one failed publication of the message
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "increment outbox message attempts",
		`UPDATE batch_outbox SET attempts = attempts + 1, last_attempt_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
}

// GetByBatchID returns the batch's message, or ErrMessageNotFound when the batch was never stored
func (r *OutboxRepository) GetByBatchID(ctx context.Context, batchID uuid.UUID) (*outbox.Message, error) {
	row := r.querier.QueryRow(ctx, `SELECT `+outboxColumns+` FROM batch_outbox WHERE batch_id = $1`, batchID)

	message, err := scanOutboxMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, outbox.ErrMessageNotFound{}
	}
	if err != nil {
		r.logger.Error("Failed to load outbox message", "batch_id", batchID.String(), "error", err)
		return nil, fmt.Errorf("failed to get outbox message by batch ID: %w", err)
	}

	return message, nil
}

// touch runs a single-row update of message id
func (r *OutboxRepository) touch(ctx context.Context, id int64, action, query string, args ...interface{}) error {
	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+action, "outbox_id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func scanOutboxMessage(row pgx.Row) (*outbox.Message, error) {
	var message outbox.Message
	err := row.Scan(
		&message.ID,
		&message.BatchID,
		&message.Payload,
		&message.Status,
		&message.Attempts,
		&message.CreatedAt,
		&message.LastAttemptAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}
