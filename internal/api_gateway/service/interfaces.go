package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/ingestion"
)

// BatchCoordinator turns a batch stream into accepted records and failures
type BatchCoordinator interface {
	ProcessBatch(ctx context.Context, r io.Reader, format transaction.Format) (*ingestion.Result, error)
}

// UploadRequest is a batch file received on the synchronous upload endpoint
type UploadRequest struct {
	FileName      string
	Body          io.Reader
	CorrelationID string
}

// UploadResult is the outcome of a synchronous upload. Records are stored only when
// Failures is empty.
type UploadResult struct {
	BatchID  uuid.UUID                       `json:"batch_id"`
	Accepted int                             `json:"accepted"`
	Failures []transaction.ValidationFailure `json:"failures,omitempty"`
}

// Rejected reports whether the batch was refused because of failing records
func (r *UploadResult) Rejected() bool {
	return len(r.Failures) > 0
}

// TransactionService defines the interface for synchronous ingestion and querying
type TransactionService interface {
	// Upload parses and validates a batch and stores it only when every record is valid.
	// Returns the coordinator's call-level errors unchanged.
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)

	// List returns stored records matching every populated field of the filter
	List(ctx context.Context, filter transaction.Filter) ([]*transaction.Record, error)
}

// BatchService defines the interface for asynchronous batch submission
type BatchService interface {
	// Submit records a pending report and enqueues the batch for the processor
	Submit(ctx context.Context, fileName string, content []byte, correlationID string) (*batch.Report, error)

	// GetReport returns nil when the batch is unknown
	GetReport(ctx context.Context, batchID uuid.UUID) (*batch.Report, error)
}
