package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/transaction-ingestion/internal/domain/batch"
)

const (
	// ReportCollectionName is the name of the batch report collection in MongoDB
	ReportCollectionName = "batch_reports"
)

// ReportRepository implements the batch.ReportRepository interface for MongoDB
type ReportRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewReportRepository creates a new MongoDB batch report repository
func NewReportRepository(logger *slog.Logger, db *mongo.Database) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique batch_id index used by lookups and duplicate detection
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(ReportCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "batch_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_batch_id"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create batch report indexes", "error", err)
		return fmt.Errorf("failed to create batch report indexes: %w", err)
	}

	return nil
}

// Create stores a new report after checking for duplicates.
// Returns ErrDuplicateReport if a report for the same batch exists.
func (r *ReportRepository) Create(ctx context.Context, report *batch.Report) error {
	collection := r.db.Collection(ReportCollectionName)

	existing, err := r.GetByBatchID(ctx, report.BatchID)
	if err != nil && !errors.Is(err, batch.ErrReportNotFound{}) {
		r.logger.Error("Failed to check for existing batch report",
			"batch_id", report.BatchID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing batch report: %w", err)
	}
	if existing != nil {
		return batch.ErrDuplicateReport{BatchID: report.BatchID}
	}

	if _, err := collection.InsertOne(ctx, report); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return batch.ErrDuplicateReport{BatchID: report.BatchID}
		}
		r.logger.Error("Failed to create batch report",
			"batch_id", report.BatchID.String(),
			"error", err)
		return fmt.Errorf("failed to create batch report: %w", err)
	}

	return nil
}

// GetByBatchID retrieves a report by batch id.
// Returns ErrReportNotFound if no report exists for the batch.
func (r *ReportRepository) GetByBatchID(ctx context.Context, batchID uuid.UUID) (*batch.Report, error) {
	collection := r.db.Collection(ReportCollectionName)

	var report batch.Report
	err := collection.FindOne(ctx, bson.M{"batch_id": batchID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, batch.ErrReportNotFound{BatchID: batchID}
		}
		r.logger.Error("Failed to get batch report",
			"batch_id", batchID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get batch report: %w", err)
	}

	return &report, nil
}

// UpdateOutcome writes the terminal status, counts and failures of a batch.
// Returns ErrReportNotFound if the report doesn't exist.
func (r *ReportRepository) UpdateOutcome(ctx context.Context, batchID uuid.UUID, outcome batch.Outcome) error {
	collection := r.db.Collection(ReportCollectionName)

	update := bson.M{
		"$set": bson.M{
			"status":         outcome.Status,
			"accepted_count": outcome.AcceptedCount,
			"rejected_count": len(outcome.Failures),
			"failures":       outcome.Failures,
			"failure_reason": outcome.FailureReason,
			"processed_at":   time.Now().UTC(),
		},
	}

	result, err := collection.UpdateOne(ctx, bson.M{"batch_id": batchID}, update)
	if err != nil {
		r.logger.Error("Failed to update batch report",
			"batch_id", batchID.String(),
			"status", string(outcome.Status),
			"error", err)
		return fmt.Errorf("failed to update batch report: %w", err)
	}

	if result.MatchedCount == 0 {
		return batch.ErrReportNotFound{BatchID: batchID}
	}

	return nil
}
