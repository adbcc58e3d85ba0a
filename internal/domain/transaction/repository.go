package transaction

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository stores accepted records and answers filtered queries
type Repository interface {
	// SaveAll inserts every record; wrap it in a database transaction for all-or-nothing batches
	SaveAll(ctx context.Context, records []*Record) error
	Find(ctx context.Context, filter Filter) ([]*Record, error)
	WithTx(tx pgx.Tx) Repository
}
