package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/transaction-ingestion/internal/config"
)

// ErrMessageTooLarge is returned when an encoded message exceeds the configured producer limit
type ErrMessageTooLarge struct {
	Size  int
	Limit int64
}

func (e ErrMessageTooLarge) Error() string {
	return fmt.Sprintf("message of %d bytes exceeds producer limit of %d bytes", e.Size, e.Limit)
}

// BatchRequestProducer publishes uploaded batches for asynchronous processing
type BatchRequestProducer struct {
	logger          *slog.Logger
	writer          KafkaWriter // Interface for testability
	topic           string
	maxMessageBytes int64
}

// NewBatchRequestProducer creates the gateway producer and ensures the batch topic exists
func NewBatchRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*BatchRequestProducer, error) {
	if cfg.BatchTopic == "" {
		return nil, fmt.Errorf("kafka batch topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for batch request producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.BatchTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure batch topic %s exists: %w", cfg.BatchTopic, err)
	}

	// Synchronous so the gateway only answers 202 once the broker has the batch
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.BatchTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchSize:    1,
		BatchBytes:   cfg.MaxMessageBytes,
		Compression:  kafka.Snappy,
		WriteTimeout: cfg.MaxWait,
	}

	return &BatchRequestProducer{
		logger:          logger,
		writer:          writer,
		topic:           cfg.BatchTopic,
		maxMessageBytes: cfg.MaxMessageBytes,
	}, nil
}

// Publish encodes value as JSON and writes it under key
func (p *BatchRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal batch request: %w", err)
	}

	if p.maxMessageBytes > 0 && int64(len(jsonValue)) > p.maxMessageBytes {
		return ErrMessageTooLarge{Size: len(jsonValue), Limit: p.maxMessageBytes}
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish batch request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish batch request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published batch request",
		"topic", p.topic,
		"key", key,
		"bytes", len(jsonValue),
	)
	return nil
}

func (p *BatchRequestProducer) Close() error {
	p.logger.Info("Closing batch request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
