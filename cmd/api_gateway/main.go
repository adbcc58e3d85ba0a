package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/transaction-ingestion/internal/api_gateway"
	"github.com/transaction-ingestion/internal/api_gateway/service"
	"github.com/transaction-ingestion/internal/config"
	"github.com/transaction-ingestion/internal/data/mongo"
	"github.com/transaction-ingestion/internal/data/postgres"
	"github.com/transaction-ingestion/internal/ingestion"
	"github.com/transaction-ingestion/internal/logger"
	"github.com/transaction-ingestion/internal/platform/messaging/producers"
	"github.com/transaction-ingestion/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Publishes batch requests to the batch topic for asynchronous ingestion
	kafkaProducer, err := producers.NewBatchRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize API Gateway Kafka producer", "error", err)
		os.Exit(1)
	}

	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	reportRepo := mongo.NewReportRepository(log, mongoDB.Database())
	if err := reportRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure batch report indexes", "error", err)
		os.Exit(1)
	}

	coordinator := ingestion.NewCoordinator(log, ingestion.WithMaxBytes(cfg.Upload.MaxBytes))

	transactionService := service.NewTransactionService(log, coordinator, postgresDB, transactionRepo, reportRepo)
	batchService := service.NewBatchService(log, reportRepo, kafkaProducer)

	server := api_gateway.NewServer(log, cfg, transactionService, batchService,
		api_gateway.HealthCheck{Name: "postgres", Ping: postgresDB.Ping},
		api_gateway.HealthCheck{Name: "mongodb", Ping: mongoDB.Ping},
	)
	log.Info("REST server initialized", "max_upload_bytes", cfg.Upload.MaxBytes)

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain in-flight requests before closing their dependencies
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	if err := kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
