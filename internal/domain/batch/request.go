package batch

import (
	"time"

	"github.com/google/uuid"
)

// Request defines the Kafka message submitted for asynchronous batch ingestion.
// Content is the raw file body and travels base64-encoded in JSON.
type Request struct {
	BatchID       uuid.UUID `json:"batch_id"`
	FileName      string    `json:"file_name"`
	Content       []byte    `json:"content"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
