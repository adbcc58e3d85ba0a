package batch

import (
	"time"

	"github.com/google/uuid"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

// Status defines the lifecycle of an ingested batch
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
	StatusFailed    Status = "FAILED"
)

// IsFinal reports whether a batch in this status will not be processed again
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// Report records the outcome of one batch, including every validation failure.
// Reports are the persisted validation log of the service.
type Report struct {
	BatchID       uuid.UUID                       `json:"batch_id" bson:"batch_id"`
	FileName      string                          `json:"file_name" bson:"file_name"`
	Format        transaction.Format              `json:"format" bson:"format"`
	Status        Status                          `json:"status" bson:"status"`
	AcceptedCount int                             `json:"accepted_count" bson:"accepted_count"`
	RejectedCount int                             `json:"rejected_count" bson:"rejected_count"`
	Failures      []transaction.ValidationFailure `json:"failures,omitempty" bson:"failures,omitempty"`
	FailureReason string                          `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID string                          `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time                       `json:"created_at" bson:"created_at"`
	ProcessedAt   *time.Time                      `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// NewPendingReport starts a report for a batch accepted for asynchronous processing
func NewPendingReport(batchID uuid.UUID, fileName string, format transaction.Format, correlationID string) *Report {
	return &Report{
		BatchID:       batchID,
		FileName:      fileName,
		Format:        format,
		Status:        StatusPending,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Outcome is the terminal state written onto a report
type Outcome struct {
	Status        Status
	AcceptedCount int
	Failures      []transaction.ValidationFailure
	FailureReason string
}

// CompletedOutcome describes a batch whose records were all stored
func CompletedOutcome(accepted int) Outcome {
	return Outcome{Status: StatusCompleted, AcceptedCount: accepted}
}

// RejectedOutcome describes a batch refused because at least one record failed
func RejectedOutcome(accepted int, failures []transaction.ValidationFailure) Outcome {
	return Outcome{Status: StatusRejected, AcceptedCount: accepted, Failures: failures}
}

// FailedOutcome describes a batch that could not be read at all
func FailedOutcome(reason string) Outcome {
	return Outcome{Status: StatusFailed, FailureReason: reason}
}

// Apply copies the outcome onto the report and stamps the processing time
func (r *Report) Apply(outcome Outcome) {
	r.Status = outcome.Status
	r.AcceptedCount = outcome.AcceptedCount
	r.RejectedCount = len(outcome.Failures)
	r.Failures = outcome.Failures
	r.FailureReason = outcome.FailureReason
	now := time.Now().UTC()
	r.ProcessedAt = &now
}
