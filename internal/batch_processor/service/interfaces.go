package service

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/ingestion"
)

// ProcessingService defines the interface for processing queued batches.
type ProcessingService interface {
	ProcessBatch(ctx context.Context, request *batch.Request) error
}

// BatchCoordinator parses and validates a batch file
type BatchCoordinator interface {
	ProcessFile(ctx context.Context, r io.Reader, fileName string) (*ingestion.Result, error)
}

// IdempotencyChecker decides whether a redelivered batch was already handled
type IdempotencyChecker interface {
	ShouldSkip(ctx context.Context, request *batch.Request) (bool, error)
}

// TransactionWriter stores the accepted records of a batch inside a database transaction
type TransactionWriter interface {
	SaveAll(ctx context.Context, tx pgx.Tx, request *batch.Request, records []*transaction.Record) error
}

// OutboxManager handles the creation of outbox entries for stored batches
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, report *batch.Report) error
}

// FailureRecorder writes the terminal outcome of batches that were not stored
type FailureRecorder interface {
	RecordOutcome(ctx context.Context, request *batch.Request, outcome batch.Outcome) error
}
