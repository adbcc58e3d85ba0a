package components

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/transaction-ingestion/internal/batch_processor/service"
	"github.com/transaction-ingestion/internal/domain/batch"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

type TransactionWriterImpl struct {
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

func NewTransactionWriter(transactionRepo transaction.Repository, logger *slog.Logger) service.TransactionWriter {
	return &TransactionWriterImpl{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// SaveAll stores the accepted records of a batch inside tx
func (w *TransactionWriterImpl) SaveAll(ctx context.Context, tx pgx.Tx, request *batch.Request, records []*transaction.Record) error {
	if err := w.transactionRepo.WithTx(tx).SaveAll(ctx, records); err != nil {
		w.logger.Error("Failed to save batch records",
			"batch_id", request.BatchID.String(),
			"records", len(records),
			"error", err,
		)
		return err
	}

	w.logger.Debug("Batch records saved", "batch_id", request.BatchID.String(), "records", len(records))
	return nil
}
