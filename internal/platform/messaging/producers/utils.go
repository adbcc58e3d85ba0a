package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	topicReadAttempts   = 5
	topicReadRetryDelay = 2 * time.Second
)

// topicAdmin is the part of *kafka.Conn used to manage topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// createKafkaTopicIfNotExists creates the topic when its partitions cannot be read
func createKafkaTopicIfNotExists(conn topicAdmin, topicName string, numPartitions int, replicationFactor int, log *slog.Logger) error {
	return ensureTopic(conn, kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}, topicReadRetryDelay, log)
}

func ensureTopic(conn topicAdmin, topic kafka.TopicConfig, retryDelay time.Duration, log *slog.Logger) error {
	var (
		partitions []kafka.Partition
		err        error
	)

	log.Info("Checking if Kafka topic exists", "topic", topic.Topic)
	for i := 0; i < topicReadAttempts; i++ {
		partitions, err = conn.ReadPartitions(topic.Topic)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "topic", topic.Topic, "partitions", len(partitions))
			return nil
		}
		log.Warn("Failed to read partitions, retrying...", "topic", topic.Topic, "attempt", i+1, "error", err)
		if i < topicReadAttempts-1 {
			time.Sleep(retryDelay)
		}
	}

	if topic.NumPartitions <= 0 {
		topic.NumPartitions = 1
	}
	if topic.ReplicationFactor <= 0 {
		topic.ReplicationFactor = 1
	}

	log.Info("Kafka topic not found, creating it",
		"topic", topic.Topic,
		"partitions", topic.NumPartitions,
		"replication_factor", topic.ReplicationFactor,
		"last_read_error", err,
	)
	if err := conn.CreateTopics(topic); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic.Topic, err)
	}
	log.Info("Successfully created Kafka topic", "topic", topic.Topic)
	return nil
}
