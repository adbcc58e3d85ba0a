package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/transaction-ingestion/internal/domain/batch"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message carries a finished batch report until it is published to the report store
type Message struct {
	ID            int64           `json:"id"`
	BatchID       uuid.UUID       `json:"batch_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(report *batch.Report) (*Message, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	return &Message{
		BatchID:   report.BatchID,
		Payload:   payload,
		Status:    StatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = StatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = StatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetReport extracts the batch report from the payload
func (m *Message) GetReport() (*batch.Report, error) {
	var report batch.Report
	if err := json.Unmarshal(m.Payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
