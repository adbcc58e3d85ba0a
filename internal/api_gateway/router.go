package api_gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/transaction-ingestion/internal/api_gateway/handler"
	"github.com/transaction-ingestion/internal/api_gateway/middleware"
)

// healthCheckTimeout bounds each dependency check of the health endpoint
const healthCheckTimeout = 2 * time.Second

// HealthCheck is a dependency pinged by the health endpoint
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	maxUploadBytes int64,
	transactionHandler *handler.TransactionHandler,
	batchHandler *handler.BatchHandler,
	checks []HealthCheck,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Synchronous ingestion and query
		transactions := v1.Group("/transactions")
		{
			transactions.POST("/upload", middleware.BodyLimit(maxUploadBytes), transactionHandler.Upload)
			transactions.GET("", transactionHandler.List)
		}

		// Asynchronous ingestion
		batches := v1.Group("/batches")
		{
			batches.POST("", middleware.BodyLimit(maxUploadBytes), batchHandler.Submit)
			batches.GET("/:id", batchHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", healthHandler(logger, checks))
}

func healthHandler(logger *slog.Logger, checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		dependencies := make(gin.H, len(checks))
		healthy := true

		for _, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			err := check.Ping(ctx)
			cancel()

			if err != nil {
				logger.Warn("Health check failed", "dependency", check.Name, "error", err)
				dependencies[check.Name] = "unavailable"
				healthy = false
				continue
			}
			dependencies[check.Name] = "ok"
		}

		status, code := "ok", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": dependencies,
			"timestamp":    time.Now().UTC(),
		})
	}
}
