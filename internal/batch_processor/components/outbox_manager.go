package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/transaction-ingestion/internal/batch_processor/service"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/outbox"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry writes the completed report into the outbox inside tx
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, report *batch.Report) error {
	logger := m.logger
	if report.CorrelationID != "" {
		logger = m.logger.With("correlation_id", report.CorrelationID)
	}

	outboxMessage, err := outbox.NewMessage(report)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"batch_id", report.BatchID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for batch %s: %w", report.BatchID.String(), err)
	}

	if err = m.outboxRepo.WithTx(tx).Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"batch_id", report.BatchID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for batch %s: %w", report.BatchID.String(), err)
	}
	logger.Info("Outbox message created successfully",
		"batch_id", report.BatchID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
