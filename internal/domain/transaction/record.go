package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the canonical transaction shape produced by every batch parser
type Record struct {
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyCode    string          `json:"currency_code"`
	TransactionDate time.Time       `json:"transaction_date"`
	Status          Status          `json:"status"`
}

// AmountScale is the number of fractional digits kept for stored amounts
const AmountScale = 2

// Payment renders the amount and currency the way the query endpoint reports them
func (r *Record) Payment() string {
	return r.Amount.StringFixed(AmountScale) + " " + r.CurrencyCode
}

// ValidationFailure explains why a source row or element did not become a Record.
// TransactionID is best-effort and empty when it could not be extracted.
type ValidationFailure struct {
	TransactionID string `json:"transaction_id" bson:"transaction_id"`
	Reason        string `json:"reason" bson:"reason"`
}

// Filter narrows a transaction query. Zero-valued fields are ignored; the date bounds are inclusive.
type Filter struct {
	CurrencyCode string
	StartDate    *time.Time
	EndDate      *time.Time
	Status       Status
}
