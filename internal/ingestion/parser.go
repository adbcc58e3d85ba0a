// Package ingestion turns a batch file into accepted transaction records and
// per-record validation failures. It knows nothing about storage or transport.
package ingestion

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/transaction-ingestion/internal/domain/transaction"
)

// Parser decodes one batch encoding into candidate records. A problem with a single
// row or element becomes a failure in the result; only stream-level problems are errors.
type Parser interface {
	Parse(r io.Reader) (*ParseResult, error)
}

// ParseResult holds the records a parser could build and the failures it captured,
// both in source order
type ParseResult struct {
	Records  []*transaction.Record
	Failures []transaction.ValidationFailure
}

func (p *ParseResult) addFailure(transactionID string, err error) {
	p.Failures = append(p.Failures, transaction.ValidationFailure{
		TransactionID: transactionID,
		Reason:        err.Error(),
	})
}

// amountPattern is the invariant number grammar: optional sign, digits with optional
// thousands groups, optional fraction. Exponents are not part of it.
var amountPattern = regexp.MustCompile(`^[+-]?(\d{1,3}(,\d{3})*|\d+)?(\.\d+)?$`)

var errAmountSyntax = errors.New("not a decimal number")

// parseAmount reads an invariant-culture decimal with '.' as the separator and ','
// as the optional group separator
func parseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if !amountPattern.MatchString(trimmed) {
		return decimal.Decimal{}, transaction.ErrInvalidField{Field: "Amount", Value: raw, Err: errAmountSyntax}
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(trimmed, ",", ""))
	if err != nil {
		return decimal.Decimal{}, transaction.ErrInvalidField{Field: "Amount", Value: raw, Err: err}
	}
	return amount, nil
}
