package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/transaction-ingestion/internal/batch_processor/service"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/platform/messaging/producers"
)

var errMissingBatchID = errors.New("batch request has no batch_id")

// BatchEventHandler handles incoming batch request messages from Kafka
type BatchEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewBatchEventHandler creates a new handler
func NewBatchEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *BatchEventHandler {
	return &BatchEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. A nil return commits the offset.
func (h *BatchEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request batch.Request
	err := json.Unmarshal(value, &request)
	if err == nil && request.BatchID == uuid.Nil {
		err = errMissingBatchID
	}
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received batch request for processing",
		"batch_id", request.BatchID.String(),
		"file_name", request.FileName,
		"size_bytes", len(request.Content),
	)

	if err := h.processingService.ProcessBatch(ctx, &request); err != nil {
		logger.Error("Failed to process batch",
			"batch_id", request.BatchID.String(),
			"error", err,
		)
		return fmt.Errorf("processing batch %s failed: %w", request.BatchID.String(), err)
	}

	logger.Info("Successfully processed batch", "batch_id", request.BatchID.String())
	return nil
}

func (h *BatchEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	const unprocessable = "Failed to decode batch request from Kafka message"
	h.logger.Error(unprocessable, "error", cause, "message_key", string(key))

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", unprocessable, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ after decode error",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
			return nil
		}
	}

	return fmt.Errorf("failed to unmarshal message value: %w", cause)
}
