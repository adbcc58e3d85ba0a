package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/transaction-ingestion/internal/batch_processor/service"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/outbox"
)

type IdempotencyCheckerImpl struct {
	reportRepo batch.ReportRepository
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewIdempotencyChecker(reportRepo batch.ReportRepository, outboxRepo outbox.Repository, logger *slog.Logger) service.IdempotencyChecker {
	return &IdempotencyCheckerImpl{
		reportRepo: reportRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// ShouldSkip reports true when the batch already reached a final status, or when its
// records were stored and only the outbox publication is outstanding
func (c *IdempotencyCheckerImpl) ShouldSkip(ctx context.Context, request *batch.Request) (bool, error) {
	logger := c.logger
	if request.CorrelationID != "" {
		logger = c.logger.With("correlation_id", request.CorrelationID)
	}

	report, err := c.reportRepo.GetByBatchID(ctx, request.BatchID)
	if err != nil && !errors.Is(err, batch.ErrReportNotFound{}) {
		logger.Error("Failed to check batch report for idempotency", "batch_id", request.BatchID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for batch %s: %w", request.BatchID.String(), err)
	}

	if report != nil && report.Status.IsFinal() {
		logger.Info("Batch already processed (idempotency)", "batch_id", request.BatchID.String(), "status", report.Status)
		return true, nil
	}
	if report == nil {
		logger.Warn("Batch report missing, processing anyway", "batch_id", request.BatchID.String())
	}

	message, err := c.outboxRepo.GetByBatchID(ctx, request.BatchID)
	if err != nil && !errors.Is(err, outbox.ErrMessageNotFound{}) {
		logger.Error("Failed to check outbox for idempotency", "batch_id", request.BatchID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for batch %s: %w", request.BatchID.String(), err)
	}
	if message != nil {
		logger.Info("Batch already stored, awaiting outbox publication", "batch_id", request.BatchID.String(), "outbox_id", message.ID)
		return true, nil
	}

	return false, nil
}
