// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository runs against a persistence.Querier so the same code serves the
// pool and an open transaction.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/transaction-ingestion/internal/domain/transaction"
	"github.com/transaction-ingestion/internal/platform/persistence"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx, so SaveAll joins the caller's transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const insertTransactionQuery = `
		INSERT INTO transactions (transaction_id, amount, currency_code, transaction_date, status)
		VALUES ($1, $2, $3, $4, $5)
	`

// SaveAll inserts every record in order. It is atomic only when the repository is bound
// to a transaction with WithTx.
func (r *TransactionRepository) SaveAll(ctx context.Context, records []*transaction.Record) error {
	for i, record := range records {
		_, err := r.querier.Exec(ctx, insertTransactionQuery,
			record.TransactionID,
			record.Amount.String(),
			record.CurrencyCode,
			record.TransactionDate,
			string(record.Status),
		)
		if err != nil {
			r.logger.Error("Failed to save transaction",
				"transaction_id", record.TransactionID,
				"position", i,
				"error", err,
			)
			return fmt.Errorf("failed to save transactions: %w", err)
		}
	}

	return nil
}

// Find returns the stored records matching every populated field of filter, in insertion order
func (r *TransactionRepository) Find(ctx context.Context, filter transaction.Filter) ([]*transaction.Record, error) {
	query, args := buildFindQuery(filter)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query transactions", "error", err)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	records := make([]*transaction.Record, 0)
	for rows.Next() {
		var record transaction.Record
		err := rows.Scan(
			&record.TransactionID,
			&record.Amount,
			&record.CurrencyCode,
			&record.TransactionDate,
			&record.Status,
		)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return records, nil
}

func buildFindQuery(filter transaction.Filter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(predicate string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(predicate, len(args)))
	}

	if filter.CurrencyCode != "" {
		add("currency_code = $%d", filter.CurrencyCode)
	}
	if filter.StartDate != nil {
		add("transaction_date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("transaction_date <= $%d", *filter.EndDate)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	var sb strings.Builder
	sb.WriteString("SELECT transaction_id, amount, currency_code, transaction_date, status FROM transactions")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY id")

	return sb.String(), args
}
