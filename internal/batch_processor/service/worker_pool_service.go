package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/transaction-ingestion/internal/domain/batch"
)

// WorkerPoolProcessingService runs batches on a bounded ants pool. The calling consumer
// still waits for each result, so offsets are committed only after processing.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessBatch submits a batch to the worker pool and waits for its result
func (s *WorkerPoolProcessingService) ProcessBatch(ctx context.Context, request *batch.Request) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting batch to worker pool", "batch_id", request.BatchID.String())

	resultChan := make(chan error, 1)

	// Copy so the worker never shares the caller's request
	requestCopy := *request

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.ProcessBatch(ctx, &requestCopy)
	})
	if err != nil {
		logger.Error("Failed to submit batch to worker pool",
			"batch_id", request.BatchID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
