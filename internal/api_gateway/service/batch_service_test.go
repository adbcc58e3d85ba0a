package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/platform/messaging/producers"
)

type MockMessagingProducer struct {
	mock.Mock
}

func (m *MockMessagingProducer) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagingProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ producers.MessagePublisher = (*MockMessagingProducer)(nil)

func TestBatchService_Submit(t *testing.T) {
	ctx := context.Background()
	content := []byte(csvHeader + "T1,10.00,USD,25/12/2023 14:30:00,Approved\n")

	t.Run("Success", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		producer := new(MockMessagingProducer)
		svc := NewBatchService(newTestLogger(), reportRepo, producer)

		reportRepo.On("Create", ctx, mock.MatchedBy(func(r *batch.Report) bool {
			return r.Status == batch.StatusPending && r.FileName == "batch.csv" && r.Format == transaction.FormatCSV
		})).Return(nil).Once()

		var published *batch.Request
		producer.On("Publish", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("*batch.Request")).
			Run(func(args mock.Arguments) {
				published = args.Get(2).(*batch.Request)
				assert.Equal(t, published.BatchID.String(), args.String(1))
			}).
			Return(nil).Once()

		report, err := svc.Submit(ctx, "batch.csv", content, "corr-1")
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, batch.StatusPending, report.Status)
		assert.Equal(t, "corr-1", report.CorrelationID)

		require.NotNil(t, published)
		assert.Equal(t, report.BatchID, published.BatchID)
		assert.Equal(t, content, published.Content)
		assert.Equal(t, "corr-1", published.CorrelationID)
		assert.False(t, published.Timestamp.IsZero())

		reportRepo.AssertExpectations(t)
		producer.AssertExpectations(t)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		producer := new(MockMessagingProducer)
		svc := NewBatchService(newTestLogger(), reportRepo, producer)

		report, err := svc.Submit(ctx, "batch.txt", content, "")
		assert.ErrorIs(t, err, transaction.ErrUnsupportedFormat{})
		assert.Nil(t, report)
		reportRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReportCreationFails", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		producer := new(MockMessagingProducer)
		svc := NewBatchService(newTestLogger(), reportRepo, producer)

		reportRepo.On("Create", ctx, mock.Anything).Return(errors.New("mongo down")).Once()

		report, err := svc.Submit(ctx, "batch.xml", content, "")
		assert.Error(t, err)
		assert.Nil(t, report)
		producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PublishFailsMarksReportFailed", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		producer := new(MockMessagingProducer)
		svc := NewBatchService(newTestLogger(), reportRepo, producer)

		reportRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		producer.On("Publish", ctx, mock.Anything, mock.Anything).Return(errors.New("broker unavailable")).Once()
		reportRepo.On("UpdateOutcome", ctx, mock.AnythingOfType("uuid.UUID"), batch.FailedOutcome("failed to enqueue batch")).Return(nil).Once()

		report, err := svc.Submit(ctx, "batch.csv", content, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue batch")
		assert.Nil(t, report)
		reportRepo.AssertExpectations(t)
	})
}

func TestBatchService_GetReport(t *testing.T) {
	ctx := context.Background()
	batchID := uuid.New()

	t.Run("Found", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		svc := NewBatchService(newTestLogger(), reportRepo, new(MockMessagingProducer))

		expected := batch.NewPendingReport(batchID, "batch.csv", transaction.FormatCSV, "")
		reportRepo.On("GetByBatchID", ctx, batchID).Return(expected, nil).Once()

		report, err := svc.GetReport(ctx, batchID)
		require.NoError(t, err)
		assert.Equal(t, expected, report)
	})

	t.Run("NotFound", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		svc := NewBatchService(newTestLogger(), reportRepo, new(MockMessagingProducer))

		reportRepo.On("GetByBatchID", ctx, batchID).Return(nil, batch.ErrReportNotFound{BatchID: batchID}).Once()

		report, err := svc.GetReport(ctx, batchID)
		assert.NoError(t, err)
		assert.Nil(t, report)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		svc := NewBatchService(newTestLogger(), reportRepo, new(MockMessagingProducer))

		reportRepo.On("GetByBatchID", ctx, batchID).Return(nil, errors.New("timeout")).Once()

		report, err := svc.GetReport(ctx, batchID)
		assert.Error(t, err)
		assert.Nil(t, report)
	})
}
