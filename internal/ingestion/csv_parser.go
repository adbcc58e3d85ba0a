package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/transaction-ingestion/internal/domain/transaction"
)

// CSVDateLayout is the exact day/month/year layout of delimited-text dates
const CSVDateLayout = "02/01/2006 15:04:05"

// Delimited-text column names bound from the header row
const (
	ColumnTransactionID   = "TransactionId"
	ColumnAmount          = "Amount"
	ColumnCurrencyCode    = "CurrencyCode"
	ColumnTransactionDate = "TransactionDate"
	ColumnStatus          = "Status"
)

const utf8BOM = "\ufeff"

// csvSchema maps column names to their position in a row
type csvSchema map[string]int

func bindHeader(header []string) csvSchema {
	schema := make(csvSchema, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if _, seen := schema[name]; !seen {
			schema[name] = i
		}
	}
	return schema
}

func (s csvSchema) value(fields []string, column string) (string, error) {
	idx, ok := s[column]
	if !ok || idx >= len(fields) {
		return "", transaction.ErrMissingColumn{Column: column}
	}
	return fields[idx], nil
}

// CSVParser reads comma-separated batches whose first row names the columns
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads every data row. A row that cannot be bound or converted becomes a
// failure carrying its raw TransactionId; a malformed line becomes a failure with
// no identifier. Reading continues after both.
func (p *CSVParser) Parse(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, transaction.ErrEmptyStream
		}
		return nil, fmt.Errorf("%w: failed to read header: %w", transaction.ErrUnreadableStream, err)
	}
	schema := bindHeader(header)

	result := &ParseResult{}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.addFailure("", err)
				continue
			}
			return nil, fmt.Errorf("%w: %w", transaction.ErrUnreadableStream, err)
		}

		record, err := p.parseRow(schema, fields)
		if err != nil {
			id, _ := schema.value(fields, ColumnTransactionID)
			result.addFailure(id, err)
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result, nil
}

func (p *CSVParser) parseRow(schema csvSchema, fields []string) (*transaction.Record, error) {
	id, err := schema.value(fields, ColumnTransactionID)
	if err != nil {
		return nil, err
	}

	rawAmount, err := schema.value(fields, ColumnAmount)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	currency, err := schema.value(fields, ColumnCurrencyCode)
	if err != nil {
		return nil, err
	}

	rawDate, err := schema.value(fields, ColumnTransactionDate)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(CSVDateLayout, rawDate)
	if err != nil {
		return nil, transaction.ErrInvalidField{Field: ColumnTransactionDate, Value: rawDate, Err: err}
	}

	rawStatus, err := schema.value(fields, ColumnStatus)
	if err != nil {
		return nil, err
	}
	status, err := transaction.NormalizeStatus(transaction.FormatCSV, rawStatus)
	if err != nil {
		return nil, err
	}

	return &transaction.Record{
		TransactionID:   id,
		Amount:          amount,
		CurrencyCode:    currency,
		TransactionDate: date,
		Status:          status,
	}, nil
}
