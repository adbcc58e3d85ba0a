package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/platform/persistence"
)

type ProcessingServiceImpl struct {
	db              persistence.TxBeginner
	coordinator     BatchCoordinator
	idempotency     IdempotencyChecker
	writer          TransactionWriter
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewProcessingService(
	db persistence.TxBeginner,
	coordinator BatchCoordinator,
	idempotency IdempotencyChecker,
	writer TransactionWriter,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		db:              db,
		coordinator:     coordinator,
		idempotency:     idempotency,
		writer:          writer,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

// ProcessBatch handles one queued batch. A nil return acknowledges the message: batches
// that were rejected or could not be read are final and recorded on their report. Errors
// are returned only for infrastructure failures so the message is redelivered.
func (s *ProcessingServiceImpl) ProcessBatch(ctx context.Context, request *batch.Request) error {
	logger := s.logger.With("batch_id", request.BatchID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing batch", "file_name", request.FileName, "bytes", len(request.Content))

	// 1. Check idempotency
	skip, err := s.idempotency.ShouldSkip(ctx, request)
	if err != nil {
		return err // Let Kafka retry
	}
	if skip {
		return nil
	}

	// 2. Parse and validate
	result, err := s.coordinator.ProcessFile(ctx, bytes.NewReader(request.Content), request.FileName)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warn("Batch could not be processed", "error", err)
		return s.recordOutcome(ctx, logger, request, batch.FailedOutcome(err.Error()))
	}

	if result.HasFailures() {
		logger.Info("Batch rejected", "accepted", len(result.Accepted), "rejected", len(result.Rejected))
		return s.recordOutcome(ctx, logger, request, batch.RejectedOutcome(len(result.Accepted), result.Rejected))
	}

	// 3. Store records and outbox entry atomically
	report := reportFor(request)
	report.Apply(batch.CompletedOutcome(len(result.Accepted)))

	err = persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.writer.SaveAll(ctx, tx, request, result.Accepted); err != nil {
			return err
		}
		return s.outboxManager.CreateOutboxEntry(ctx, tx, report)
	})
	if err != nil {
		logger.Error("Failed to store batch", "error", err)
		return fmt.Errorf("failed to store batch %s: %w", request.BatchID.String(), err)
	}

	logger.Info("Batch stored", "accepted", len(result.Accepted))
	return nil
}

// recordOutcome returns the recorder's error so a lost report write is retried
func (s *ProcessingServiceImpl) recordOutcome(ctx context.Context, logger *slog.Logger, request *batch.Request, outcome batch.Outcome) error {
	if err := s.failureRecorder.RecordOutcome(ctx, request, outcome); err != nil {
		logger.Error("Failed to record batch outcome", "status", string(outcome.Status), "error", err)
		return fmt.Errorf("failed to record outcome for batch %s: %w", request.BatchID.String(), err)
	}
	return nil
}

// reportFor rebuilds the report of a queued batch from its request
func reportFor(request *batch.Request) *batch.Report {
	format, _ := transaction.FormatFromFileName(request.FileName)
	report := batch.NewPendingReport(request.BatchID, request.FileName, format, request.CorrelationID)
	if !request.Timestamp.IsZero() {
		report.CreatedAt = request.Timestamp.UTC()
	}
	return report
}
