package ingestion

import (
	"strings"
	"unicode/utf8"

	"github.com/transaction-ingestion/internal/domain/transaction"
)

// Rule violation reasons reported for parsed records
const (
	ReasonInvalidTransactionID   = "Invalid Transaction Id"
	ReasonInvalidAmount          = "Invalid Amount"
	ReasonInvalidCurrencyCode    = "Invalid Currency Code"
	ReasonInvalidTransactionDate = "Invalid Transaction Date"
	ReasonInvalidStatus          = "Invalid Status"
)

const (
	maxTransactionIDLength = 50
	currencyCodeLength     = 3
)

// RuleViolation is returned by Validate for a record that breaks a business rule
type RuleViolation struct {
	Reason string
}

func (e *RuleViolation) Error() string {
	return e.Reason
}

type rule struct {
	reason   string
	violated func(r *transaction.Record) bool
}

// rules are evaluated in order and every one of them runs. When several are violated
// the reason of the last one is reported.
var rules = []rule{
	{
		reason: ReasonInvalidTransactionID,
		violated: func(r *transaction.Record) bool {
			return isBlank(r.TransactionID) || utf8.RuneCountInString(r.TransactionID) > maxTransactionIDLength
		},
	},
	{
		reason: ReasonInvalidAmount,
		violated: func(r *transaction.Record) bool {
			return !r.Amount.IsPositive()
		},
	},
	{
		reason: ReasonInvalidCurrencyCode,
		violated: func(r *transaction.Record) bool {
			return isBlank(r.CurrencyCode) || utf8.RuneCountInString(r.CurrencyCode) != currencyCodeLength
		},
	},
	{
		reason: ReasonInvalidTransactionDate,
		violated: func(r *transaction.Record) bool {
			return r.TransactionDate.IsZero()
		},
	},
	{
		reason: ReasonInvalidStatus,
		violated: func(r *transaction.Record) bool {
			return !r.Status.IsValid()
		},
	},
}

// Validator applies the field rules to canonical records
type Validator struct{}

// NewValidator creates a record validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns nil for a valid record, otherwise a *RuleViolation
func (v *Validator) Validate(record *transaction.Record) error {
	reason := ""
	for _, rl := range rules {
		if rl.violated(record) {
			reason = rl.reason
		}
	}
	if reason == "" {
		return nil
	}
	return &RuleViolation{Reason: reason}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
