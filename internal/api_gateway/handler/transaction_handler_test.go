package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transaction-ingestion/internal/api_gateway/service"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

const testMaxUploadBytes = 1024

// TypedResponse is a generic version of Response for decoding data in tests
type TypedResponse[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// multipartRequest builds a request carrying content under the given form field
func multipartRequest(t *testing.T, target, field, fileName string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) TypedResponse[T] {
	t.Helper()
	var response TypedResponse[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	return response
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Upload(ctx context.Context, req service.UploadRequest) (*service.UploadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockTransactionService) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Record, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Record), args.Error(1)
}

var _ service.TransactionService = (*MockTransactionService)(nil)

func TestTransactionHandler_Upload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	content := []byte("TransactionId,Amount,CurrencyCode,TransactionDate,Status\nT1,1.00,USD,25/12/2023 14:30:00,Approved\n")

	setup := func() (*MockTransactionService, *gin.Engine) {
		mockService := new(MockTransactionService)
		handler := NewTransactionHandler(newTestLogger(), mockService, testMaxUploadBytes)
		router := gin.New()
		router.POST("/transactions/upload", handler.Upload)
		return mockService, router
	}

	t.Run("Success", func(t *testing.T) {
		mockService, router := setup()
		batchID := uuid.New()

		mockService.On("Upload", mock.Anything, mock.MatchedBy(func(req service.UploadRequest) bool {
			return req.FileName == "batch.csv"
		})).
			Run(func(args mock.Arguments) {
				body, err := io.ReadAll(args.Get(1).(service.UploadRequest).Body)
				require.NoError(t, err)
				assert.Equal(t, content, body)
			}).
			Return(&service.UploadResult{BatchID: batchID, Accepted: 1}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.csv", content))

		assert.Equal(t, http.StatusOK, rr.Code)
		response := decodeResponse[UploadResponse](t, rr)
		assert.Equal(t, batchID.String(), response.Data.BatchID)
		assert.Equal(t, 1, response.Data.Accepted)
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationFailures", func(t *testing.T) {
		mockService, router := setup()

		mockService.On("Upload", mock.Anything, mock.Anything).Return(&service.UploadResult{
			BatchID: uuid.New(),
			Failures: []transaction.ValidationFailure{
				{TransactionID: "T1", Reason: "Invalid Amount"},
				{TransactionID: "", Reason: "missing column Status"},
			},
		}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.csv", content))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		response := decodeResponse[[]ValidationFailureResponse](t, rr)
		require.NotNil(t, response.Error)
		assert.Equal(t, "VALIDATION_FAILED", response.Error.Code)
		assert.Equal(t, []ValidationFailureResponse{
			{TransactionID: "T1", Reason: "Invalid Amount"},
			{TransactionID: "", Reason: "missing column Status"},
		}, response.Data)
	})

	t.Run("MissingFile", func(t *testing.T) {
		mockService, router := setup()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", "other", "batch.csv", content))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		response := decodeResponse[any](t, rr)
		require.NotNil(t, response.Error)
		assert.Equal(t, "Invalid file size", response.Error.Message)
		mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		mockService, router := setup()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.csv", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("FileTooLarge", func(t *testing.T) {
		mockService, router := setup()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.csv", make([]byte, testMaxUploadBytes+1)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		response := decodeResponse[any](t, rr)
		require.NotNil(t, response.Error)
		assert.Equal(t, "INVALID_FILE_SIZE", response.Error.Code)
		mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("Upload", mock.Anything, mock.Anything).Return(nil, transaction.ErrUnsupportedFormat{Extension: ".txt"}).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.txt", content))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		response := decodeResponse[any](t, rr)
		require.NotNil(t, response.Error)
		assert.Equal(t, "UNSUPPORTED_FORMAT", response.Error.Code)
		assert.Equal(t, "Unknown file format", response.Error.Message)
	})

	t.Run("UnreadableFile", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("Upload", mock.Anything, mock.Anything).Return(nil, transaction.ErrUnreadableStream).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.xml", content))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		response := decodeResponse[any](t, rr)
		assert.Equal(t, "UNREADABLE_FILE", response.Error.Code)
	})

	t.Run("StorageFailure", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("failed to store batch")).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartRequest(t, "/transactions/upload", UploadField, "batch.csv", content))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestTransactionHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	setup := func() (*MockTransactionService, *gin.Engine) {
		mockService := new(MockTransactionService)
		handler := NewTransactionHandler(newTestLogger(), mockService, testMaxUploadBytes)
		router := gin.New()
		router.GET("/transactions", handler.List)
		return mockService, router
	}

	t.Run("AllFilters", func(t *testing.T) {
		mockService, router := setup()
		start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)

		mockService.On("List", mock.Anything, transaction.Filter{
			CurrencyCode: "USD",
			StartDate:    &start,
			EndDate:      &end,
			Status:       transaction.StatusApproved,
		}).Return([]*transaction.Record{
			{
				TransactionID: "Inv00001",
				Amount:        decimal.RequireFromString("1000"),
				CurrencyCode:  "USD",
				Status:        transaction.StatusApproved,
			},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/transactions?currency=USD&start_date=2023-01-01&end_date=2023-12-31T23:59:59Z&status=A", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		response := decodeResponse[[]TransactionResponse](t, rr)
		assert.Equal(t, []TransactionResponse{
			{TransactionID: "Inv00001", Payment: "1000.00 USD", Status: "A"},
		}, response.Data)
		mockService.AssertExpectations(t)
	})

	t.Run("NoFilters", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("List", mock.Anything, transaction.Filter{}).Return([]*transaction.Record{}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
	})

	t.Run("LongCurrencyMatchesNothing", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("List", mock.Anything, transaction.Filter{CurrencyCode: "EURO"}).
			Return([]*transaction.Record{}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions?currency=EURO", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		mockService, router := setup()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions?status=Approved", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("InvalidStartDate", func(t *testing.T) {
		mockService, router := setup()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions?start_date=25/12/2023", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("InvalidEndDate", func(t *testing.T) {
		_, router := setup()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions?end_date=tomorrow", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestParseQueryDate(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		got, err := parseQueryDate("")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("OffsetIsNormalisedToUTC", func(t *testing.T) {
		got, err := parseQueryDate("2023-06-01T12:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), *got)
	})

	t.Run("WithoutZone", func(t *testing.T) {
		got, err := parseQueryDate("2023-06-01T12:00:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), *got)
	})
}
