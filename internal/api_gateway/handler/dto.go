package handler

// ListTransactionsQuery represents the filter parameters of the transaction query endpoint
type ListTransactionsQuery struct {
	Currency  string `form:"currency"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Status    string `form:"status" binding:"omitempty,oneof=A R D"`
}

// TransactionResponse represents a stored transaction in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Payment       string `json:"payment"`
	Status        string `json:"status"`
}

// UploadResponse represents a batch stored by the synchronous upload endpoint
type UploadResponse struct {
	BatchID  string `json:"batch_id"`
	Accepted int    `json:"accepted"`
}

// ValidationFailureResponse represents one rejected record
type ValidationFailureResponse struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// SubmitBatchResponse represents a batch queued for asynchronous processing
type SubmitBatchResponse struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
}

// BatchReportResponse represents a batch report in API responses
type BatchReportResponse struct {
	BatchID       string                      `json:"batch_id"`
	FileName      string                      `json:"file_name"`
	Format        string                      `json:"format"`
	Status        string                      `json:"status"`
	AcceptedCount int                         `json:"accepted_count"`
	RejectedCount int                         `json:"rejected_count"`
	Failures      []ValidationFailureResponse `json:"failures,omitempty"`
	FailureReason string                      `json:"failure_reason,omitempty"`
	CreatedAt     string                      `json:"created_at"`
	ProcessedAt   string                      `json:"processed_at,omitempty"`
}
