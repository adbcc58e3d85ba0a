package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/platform/messaging/producers"
)

// BatchServiceImpl implements the BatchService interface
type BatchServiceImpl struct {
	reportRepo batch.ReportRepository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewBatchService creates a new batch service
func NewBatchService(logger *slog.Logger, reportRepo batch.ReportRepository, producer producers.MessagePublisher) BatchService {
	return &BatchServiceImpl{
		reportRepo: reportRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Submit creates the pending report before publishing, so the processor always finds it
func (s *BatchServiceImpl) Submit(ctx context.Context, fileName string, content []byte, correlationID string) (*batch.Report, error) {
	format, err := transaction.FormatFromFileName(fileName)
	if err != nil {
		return nil, err
	}

	report := batch.NewPendingReport(uuid.New(), fileName, format, correlationID)
	if err := s.reportRepo.Create(ctx, report); err != nil {
		s.logger.Error("Failed to create batch report", "batch_id", report.BatchID, "error", err)
		return nil, fmt.Errorf("failed to create batch report: %w", err)
	}

	request := &batch.Request{
		BatchID:       report.BatchID,
		FileName:      fileName,
		Content:       content,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.producer.Publish(ctx, report.BatchID.String(), request); err != nil {
		s.logger.Error("Failed to publish batch request",
			"batch_id", report.BatchID,
			"file_name", fileName,
			"error", err,
		)
		if updateErr := s.reportRepo.UpdateOutcome(ctx, report.BatchID, batch.FailedOutcome("failed to enqueue batch")); updateErr != nil {
			s.logger.Error("Failed to mark batch report as failed", "batch_id", report.BatchID, "error", updateErr)
		}
		return nil, fmt.Errorf("failed to enqueue batch: %w", err)
	}

	s.logger.Info("Batch request published",
		"batch_id", report.BatchID,
		"file_name", fileName,
		"bytes", len(content),
	)
	return report, nil
}

// GetReport retrieves a batch report. Returns nil if not found
func (s *BatchServiceImpl) GetReport(ctx context.Context, batchID uuid.UUID) (*batch.Report, error) {
	report, err := s.reportRepo.GetByBatchID(ctx, batchID)
	if err != nil {
		if errors.Is(err, batch.ErrReportNotFound{}) {
			s.logger.Info("Batch report not found", "batch_id", batchID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get batch report", "batch_id", batchID.String(), "error", err)
		return nil, err
	}
	return report, nil
}
