package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/platform/persistence"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	coordinator     BatchCoordinator
	db              persistence.TxBeginner
	transactionRepo transaction.Repository
	reportRepo      batch.ReportRepository
	logger          *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	logger *slog.Logger,
	coordinator BatchCoordinator,
	db persistence.TxBeginner,
	transactionRepo transaction.Repository,
	reportRepo batch.ReportRepository,
) TransactionService {
	return &TransactionServiceImpl{
		coordinator:     coordinator,
		db:              db,
		transactionRepo: transactionRepo,
		reportRepo:      reportRepo,
		logger:          logger,
	}
}

// Upload runs the batch through the coordinator. A batch with any failure is rejected
// as a whole; otherwise every accepted record is written in one database transaction.
func (s *TransactionServiceImpl) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	logger := s.logger
	if req.CorrelationID != "" {
		logger = s.logger.With("correlation_id", req.CorrelationID)
	}

	format, err := transaction.FormatFromFileName(req.FileName)
	if err != nil {
		logger.Warn("Unsupported batch file", "file_name", req.FileName, "error", err)
		return nil, err
	}

	report := batch.NewPendingReport(uuid.New(), req.FileName, format, req.CorrelationID)

	result, err := s.coordinator.ProcessBatch(ctx, req.Body, format)
	if err != nil {
		logger.Warn("Batch could not be processed", "batch_id", report.BatchID, "error", err)
		if !errors.Is(err, context.Canceled) {
			s.recordReport(ctx, logger, report, batch.FailedOutcome(err.Error()))
		}
		return nil, err
	}

	upload := &UploadResult{
		BatchID:  report.BatchID,
		Accepted: len(result.Accepted),
	}

	if result.HasFailures() {
		upload.Failures = result.Rejected
		logger.Info("Batch rejected",
			"batch_id", report.BatchID,
			"accepted", len(result.Accepted),
			"rejected", len(result.Rejected),
		)
		s.recordReport(ctx, logger, report, batch.RejectedOutcome(len(result.Accepted), result.Rejected))
		return upload, nil
	}

	err = persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		return s.transactionRepo.WithTx(tx).SaveAll(ctx, result.Accepted)
	})
	if err != nil {
		logger.Error("Failed to store batch", "batch_id", report.BatchID, "error", err)
		return nil, fmt.Errorf("failed to store batch %s: %w", report.BatchID, err)
	}

	logger.Info("Batch stored", "batch_id", report.BatchID, "accepted", len(result.Accepted))
	s.recordReport(ctx, logger, report, batch.CompletedOutcome(len(result.Accepted)))
	return upload, nil
}

// recordReport writes the validation log entry for a synchronous upload. The upload
// outcome does not depend on it.
func (s *TransactionServiceImpl) recordReport(ctx context.Context, logger *slog.Logger, report *batch.Report, outcome batch.Outcome) {
	report.Apply(outcome)
	if err := s.reportRepo.Create(ctx, report); err != nil {
		logger.Error("Failed to record batch report",
			"batch_id", report.BatchID,
			"status", string(report.Status),
			"error", err,
		)
	}
}

// List returns the stored records matching filter
func (s *TransactionServiceImpl) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Record, error) {
	records, err := s.transactionRepo.Find(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list transactions", "error", err)
		return nil, err
	}
	return records, nil
}
