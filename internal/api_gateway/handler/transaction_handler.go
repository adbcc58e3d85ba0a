package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/transaction-ingestion/internal/api_gateway/middleware"
	"github.com/transaction-ingestion/internal/api_gateway/service"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

// queryDateLayouts are tried in order for the start_date and end_date parameters
var queryDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	transactionService service.TransactionService
	maxUploadBytes     int64
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService, maxUploadBytes int64) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		maxUploadBytes:     maxUploadBytes,
		logger:             logger,
	}
}

// Upload ingests a batch file synchronously. The batch is stored only when every record
// is valid; otherwise the rejected records are returned.
func (h *TransactionHandler) Upload(c *gin.Context) {
	fileHeader, ok := uploadedFile(c, h.logger, h.maxUploadBytes)
	if !ok {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "file_name", fileHeader.Filename, "error", err)
		RespondInternalError(c)
		return
	}
	defer file.Close()

	result, err := h.transactionService.Upload(c.Request.Context(), service.UploadRequest{
		FileName:      fileHeader.Filename,
		Body:          file,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.logger.Warn("Upload failed", "file_name", fileHeader.Filename, "error", err)
		respondBatchError(c, err)
		return
	}

	if result.Rejected() {
		RespondWithErrorData(c, http.StatusBadRequest, "VALIDATION_FAILED", "Batch contains invalid transactions",
			mapFailuresToResponse(result.Failures))
		return
	}

	RespondOK(c, UploadResponse{
		BatchID:  result.BatchID.String(),
		Accepted: result.Accepted,
	})
}

// List returns stored transactions matching the query filters
func (h *TransactionHandler) List(c *gin.Context) {
	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	filter := transaction.Filter{
		CurrencyCode: query.Currency,
		Status:       transaction.Status(query.Status),
	}

	var err error
	if filter.StartDate, err = parseQueryDate(query.StartDate); err != nil {
		RespondBadRequest(c, "Invalid start_date")
		return
	}
	if filter.EndDate, err = parseQueryDate(query.EndDate); err != nil {
		RespondBadRequest(c, "Invalid end_date")
		return
	}

	records, err := h.transactionService.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list transactions", "error", err)
		RespondInternalError(c)
		return
	}

	transactions := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		transactions = append(transactions, mapRecordToResponse(record))
	}

	RespondOK(c, transactions)
}

// parseQueryDate returns nil for an empty parameter
func parseQueryDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	var lastErr error
	for _, layout := range queryDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func mapRecordToResponse(record *transaction.Record) TransactionResponse {
	return TransactionResponse{
		TransactionID: record.TransactionID,
		Payment:       record.Payment(),
		Status:        string(record.Status),
	}
}

func mapFailuresToResponse(failures []transaction.ValidationFailure) []ValidationFailureResponse {
	response := make([]ValidationFailureResponse, 0, len(failures))
	for _, f := range failures {
		response = append(response, ValidationFailureResponse{
			TransactionID: f.TransactionID,
			Reason:        f.Reason,
		})
	}
	return response
}
