package components

import (
	"log/slog"

	"github.com/transaction-ingestion/internal/batch_processor/service"
	"github.com/transaction-ingestion/internal/config"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/outbox"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/platform/persistence"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	db persistence.TxBeginner,
	coordinator service.BatchCoordinator,
	transactionRepo transaction.Repository,
	outboxRepo outbox.Repository,
	reportRepo batch.ReportRepository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	idempotency := NewIdempotencyChecker(reportRepo, outboxRepo, logger)
	writer := NewTransactionWriter(transactionRepo, logger)
	outboxManager := NewOutboxManager(outboxRepo, logger)
	failureRecorder := NewFailureRecorder(reportRepo, logger)

	baseService := service.NewProcessingService(
		db,
		coordinator,
		idempotency,
		writer,
		outboxManager,
		failureRecorder,
		logger,
	)

	if cfg.WorkerPool.Size <= 0 {
		logger.Warn("Worker pool disabled, using base processing service", "pool_size", cfg.WorkerPool.Size)
		return baseService
	}

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
