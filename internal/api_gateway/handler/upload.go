package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

// UploadField is the multipart form field that carries the batch file
const UploadField = "file"

// uploadedFile returns the batch file of the request. On a missing, empty or oversized
// file the 400 response has already been written and ok is false.
func uploadedFile(c *gin.Context, logger *slog.Logger, maxBytes int64) (*multipart.FileHeader, bool) {
	fileHeader, err := c.FormFile(UploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("Upload exceeds body limit", "limit", maxErr.Limit)
		} else {
			logger.Warn("Upload file missing", "error", err)
		}
		RespondInvalidFileSize(c)
		return nil, false
	}

	if fileHeader.Size == 0 || fileHeader.Size > maxBytes {
		logger.Warn("Invalid upload size",
			"file_name", fileHeader.Filename,
			"size", fileHeader.Size,
			"limit", maxBytes,
		)
		RespondInvalidFileSize(c)
		return nil, false
	}

	return fileHeader, true
}

// respondBatchError maps call-level ingestion errors to responses
func respondBatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, transaction.ErrUnsupportedFormat{}):
		RespondUnsupportedFormat(c)
	case errors.Is(err, transaction.ErrEmptyStream), errors.Is(err, transaction.ErrStreamTooLarge{}):
		RespondInvalidFileSize(c)
	case errors.Is(err, transaction.ErrUnreadableStream):
		RespondWithError(c, http.StatusBadRequest, "UNREADABLE_FILE", "File could not be read")
	default:
		RespondInternalError(c)
	}
}
