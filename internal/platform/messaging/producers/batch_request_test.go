package producers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transaction-ingestion/internal/domain/batch"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestBatchRequestProducer_Publish(t *testing.T) {
	logger := newTestLogger()
	topic := "test-batches"
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchRequestProducer{
			logger:          logger,
			writer:          mockWriter,
			topic:           topic,
			maxMessageBytes: 1 << 20,
		}

		request := &batch.Request{
			BatchID:   uuid.New(),
			FileName:  "batch.csv",
			Content:   []byte("TransactionId,Amount\n"),
			Timestamp: time.Now().UTC(),
		}
		key := request.BatchID.String()
		expectedJSONValue, _ := json.Marshal(request)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			return string(msgs[0].Key) == key && string(msgs[0].Value) == string(expectedJSONValue)
		})).Return(nil).Once()

		err := producer.Publish(ctx, key, request)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchRequestProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}
		writerError := errors.New("kafka write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.Publish(ctx, "key", map[string]string{"data": "test-data"})
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
		mockWriter.AssertExpectations(t)
	})

	t.Run("RejectsOversizedMessage", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchRequestProducer{
			logger:          logger,
			writer:          mockWriter,
			topic:           topic,
			maxMessageBytes: 32,
		}

		err := producer.Publish(ctx, "key", map[string]string{"content": "this value does not fit in thirty-two bytes"})
		var tooLarge ErrMessageTooLarge
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, int64(32), tooLarge.Limit)
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})

	t.Run("UnmarshalableValue", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchRequestProducer{logger: logger, writer: mockWriter, topic: topic}

		err := producer.Publish(ctx, "key", make(chan int))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal batch request")
	})
}

func TestBatchRequestProducer_Close(t *testing.T) {
	logger := newTestLogger()

	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchRequestProducer{logger: logger, writer: mockWriter, topic: "t"}
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterCloseError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchRequestProducer{logger: logger, writer: mockWriter, topic: "t"}
		closeError := errors.New("kafka close error")
		mockWriter.On("Close").Return(closeError).Once()

		err := producer.Close()
		assert.ErrorIs(t, err, closeError)
		mockWriter.AssertExpectations(t)
	})
}

// Verify interface implementation
var _ KafkaWriter = (*MockKafkaWriter)(nil)
