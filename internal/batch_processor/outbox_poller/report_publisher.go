package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/outbox"
)

// ReportPublisher publishes outbox messages to the batch report store
type ReportPublisher interface {
	PublishReport(ctx context.Context, message *outbox.Message) error
}

// ReportPublisherImpl implements ReportPublisher
type ReportPublisherImpl struct {
	outboxRepo outbox.Repository
	reportRepo batch.ReportRepository
	logger     *slog.Logger
}

// NewReportPublisher creates a new publisher
func NewReportPublisher(
	outboxRepo outbox.Repository,
	reportRepo batch.ReportRepository,
	logger *slog.Logger,
) ReportPublisher {
	return &ReportPublisherImpl{
		outboxRepo: outboxRepo,
		reportRepo: reportRepo,
		logger:     logger,
	}
}

// PublishReport marks the batch report COMPLETED and the outbox message PROCESSED.
// A payload that cannot be decoded is marked FAILED_TO_PUBLISH straight away.
func (p *ReportPublisherImpl) PublishReport(ctx context.Context, message *outbox.Message) error {
	report, err := message.GetReport()
	if err != nil {
		p.logger.Error("Failed to unmarshal batch report from outbox payload",
			"outbox_id", message.ID, "batch_id", message.BatchID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		} else {
			message.MarkAsFailed()
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if report.CorrelationID != "" {
		logger = p.logger.With("correlation_id", report.CorrelationID)
	}
	batchID := report.BatchID.String()

	logger.Info("Publishing batch report from outbox", "outbox_id", message.ID, "batch_id", batchID)

	existing, err := p.reportRepo.GetByBatchID(ctx, report.BatchID)
	if err != nil && !errors.Is(err, batch.ErrReportNotFound{}) {
		logger.Error("Failed to check existing batch report before publishing", "batch_id", batchID, "error", err)
		return fmt.Errorf("failed to check existing batch report %s: %w", batchID, err)
	}

	switch {
	case existing == nil:
		if report.ProcessedAt == nil {
			report.Apply(batch.CompletedOutcome(report.AcceptedCount))
		}
		if err := p.reportRepo.Create(ctx, report); err != nil {
			logger.Error("Failed to create batch report in MongoDB", "batch_id", batchID, "error", err)
			return fmt.Errorf("failed to create batch report %s: %w", batchID, err)
		}
		logger.Info("Created batch report in MongoDB", "batch_id", batchID)
	case existing.Status == batch.StatusCompleted:
		logger.Info("Batch report already COMPLETED", "batch_id", batchID)
	default:
		if err := p.reportRepo.UpdateOutcome(ctx, report.BatchID, batch.CompletedOutcome(report.AcceptedCount)); err != nil {
			logger.Error("Failed to update batch report to COMPLETED", "batch_id", batchID, "error", err)
			return fmt.Errorf("failed to update batch report %s to COMPLETED: %w", batchID, err)
		}
		logger.Info("Updated batch report to COMPLETED", "batch_id", batchID, "accepted", report.AcceptedCount)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "batch_id", batchID, "error", err,
		)
		return fmt.Errorf("report write for %s OK, but failed to mark outbox %d as PROCESSED: %w", batchID, message.ID, err)
	}
	message.MarkAsProcessed()

	logger.Info("Outbox message processed and marked as PROCESSED", "outbox_id", message.ID, "batch_id", batchID)
	return nil
}
