package handler

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/transaction-ingestion/internal/api_gateway/middleware"
	"github.com/transaction-ingestion/internal/api_gateway/service"
	"github.com/transaction-ingestion/internal/domain/batch"
)

// BatchHandler handles HTTP requests for asynchronous batch ingestion
type BatchHandler struct {
	batchService   service.BatchService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(logger *slog.Logger, batchService service.BatchService, maxUploadBytes int64) *BatchHandler {
	return &BatchHandler{
		batchService:   batchService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Submit queues a batch file for the processor and returns its id
func (h *BatchHandler) Submit(c *gin.Context) {
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

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		h.logger.Error("Failed to read upload", "file_name", fileHeader.Filename, "error", err)
		RespondInternalError(c)
		return
	}

	report, err := h.batchService.Submit(c.Request.Context(), fileHeader.Filename, content, middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Error("Failed to submit batch", "file_name", fileHeader.Filename, "error", err)
		respondBatchError(c, err)
		return
	}

	RespondAccepted(c, SubmitBatchResponse{
		BatchID: report.BatchID.String(),
		Status:  string(report.Status),
	})
}

// GetByID retrieves a batch report by its ID, returns 404 if not found
func (h *BatchHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid batch ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid batch ID")
		return
	}

	report, err := h.batchService.GetReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get batch report", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if report == nil {
		RespondNotFound(c, "Batch not found")
		return
	}

	RespondOK(c, mapReportToResponse(report))
}

func mapReportToResponse(report *batch.Report) BatchReportResponse {
	response := BatchReportResponse{
		BatchID:       report.BatchID.String(),
		FileName:      report.FileName,
		Format:        string(report.Format),
		Status:        string(report.Status),
		AcceptedCount: report.AcceptedCount,
		RejectedCount: report.RejectedCount,
		FailureReason: report.FailureReason,
		CreatedAt:     report.CreatedAt.Format(time.RFC3339),
	}

	if len(report.Failures) > 0 {
		response.Failures = mapFailuresToResponse(report.Failures)
	}
	if report.ProcessedAt != nil {
		response.ProcessedAt = report.ProcessedAt.Format(time.RFC3339)
	}

	return response
}
