package batch

import (
	"context"

	"github.com/google/uuid"
)

// ReportRepository persists batch reports
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	GetByBatchID(ctx context.Context, batchID uuid.UUID) (*Report, error)
	UpdateOutcome(ctx context.Context, batchID uuid.UUID, outcome Outcome) error
}

// ErrReportNotFound indicates missing batch report
type ErrReportNotFound struct {
	BatchID uuid.UUID
}

func (e ErrReportNotFound) Error() string {
	return "batch report not found: " + e.BatchID.String()
}

// Is implements the errors.Is interface for ErrReportNotFound
func (e ErrReportNotFound) Is(target error) bool {
	t, ok := target.(ErrReportNotFound)
	if !ok {
		return false
	}
	// An empty target BatchID matches any missing report
	if t.BatchID == uuid.Nil {
		return true
	}
	return e.BatchID == t.BatchID
}

// ErrDuplicateReport indicates batch id uniqueness violation
type ErrDuplicateReport struct {
	BatchID uuid.UUID
}

func (e ErrDuplicateReport) Error() string {
	return "duplicate batch report: " + e.BatchID.String()
}

// Is implements the errors.Is interface for ErrDuplicateReport
func (e ErrDuplicateReport) Is(target error) bool {
	t, ok := target.(ErrDuplicateReport)
	if !ok {
		return false
	}
	if t.BatchID == uuid.Nil {
		return true
	}
	return e.BatchID == t.BatchID
}
