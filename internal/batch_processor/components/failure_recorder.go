package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/transaction-ingestion/internal/batch_processor/service"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

type FailureRecorderImpl struct {
	reportRepo batch.ReportRepository
	logger     *slog.Logger
}

func NewFailureRecorder(reportRepo batch.ReportRepository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		reportRepo: reportRepo,
		logger:     logger,
	}
}

// RecordOutcome writes a REJECTED or FAILED outcome onto the batch report, creating the
// report when the gateway's pending one is missing
func (r *FailureRecorderImpl) RecordOutcome(ctx context.Context, request *batch.Request, outcome batch.Outcome) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording batch outcome",
		"batch_id", request.BatchID.String(),
		"status", string(outcome.Status),
		"rejected", len(outcome.Failures),
		"reason", outcome.FailureReason,
	)

	err := r.reportRepo.UpdateOutcome(ctx, request.BatchID, outcome)
	if err == nil {
		return nil
	}
	if !errors.Is(err, batch.ErrReportNotFound{}) {
		logger.Error("Failed to update batch report", "batch_id", request.BatchID.String(), "error", err)
		return err
	}

	format, _ := transaction.FormatFromFileName(request.FileName)
	report := batch.NewPendingReport(request.BatchID, request.FileName, format, request.CorrelationID)
	report.Apply(outcome)

	logger.Info("Creating missing batch report", "batch_id", request.BatchID.String())
	if createErr := r.reportRepo.Create(ctx, report); createErr != nil {
		logger.Error("Failed to create batch report", "batch_id", request.BatchID.String(), "error", createErr)
		return createErr
	}
	return nil
}
