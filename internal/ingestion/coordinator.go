package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/transaction-ingestion/internal/domain/transaction"
)

// DefaultMaxBytes is the batch size ceiling used when none is configured
const DefaultMaxBytes int64 = 1 << 20

// Result is the outcome of one batch. Rejected lists parser failures first and
// validator failures after them.
type Result struct {
	Accepted []*transaction.Record           `json:"accepted"`
	Rejected []transaction.ValidationFailure `json:"rejected"`
}

// HasFailures reports whether any record of the batch was rejected
func (r *Result) HasFailures() bool {
	return len(r.Rejected) > 0
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithMaxBytes overrides the batch size ceiling
func WithMaxBytes(n int64) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithParser registers or replaces the parser for a format
func WithParser(format transaction.Format, parser Parser) Option {
	return func(c *Coordinator) {
		c.parsers[format] = parser
	}
}

// Coordinator selects a parser, runs it, and validates every parsed record
type Coordinator struct {
	logger    *slog.Logger
	parsers   map[transaction.Format]Parser
	validator *Validator
	maxBytes  int64
}

// NewCoordinator creates a coordinator with the delimited-text and markup parsers registered
func NewCoordinator(logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger: logger,
		parsers: map[transaction.Format]Parser{
			transaction.FormatCSV: NewCSVParser(),
			transaction.FormatXML: NewXMLParser(),
		},
		validator: NewValidator(),
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxBytes returns the batch size ceiling
func (c *Coordinator) MaxBytes() int64 {
	return c.maxBytes
}

// ProcessFile resolves the format from the file name extension and processes the batch
func (c *Coordinator) ProcessFile(ctx context.Context, r io.Reader, fileName string) (*Result, error) {
	format, err := transaction.FormatFromFileName(fileName)
	if err != nil {
		return nil, err
	}
	return c.ProcessBatch(ctx, r, format)
}

// ProcessBatch reads the whole stream, parses it with the parser for format and
// validates every parsed record. Only stream-level problems are returned as errors.
func (c *Coordinator) ProcessBatch(ctx context.Context, r io.Reader, format transaction.Format) (*Result, error) {
	parser, ok := c.parsers[format]
	if !ok {
		return nil, transaction.ErrUnsupportedFormat{Extension: string(format)}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := c.readAll(r)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		c.logger.Warn("Failed to parse batch", "format", format, "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Accepted: make([]*transaction.Record, 0, len(parsed.Records)),
		Rejected: make([]transaction.ValidationFailure, 0, len(parsed.Failures)),
	}
	result.Rejected = append(result.Rejected, parsed.Failures...)

	for _, record := range parsed.Records {
		if err := c.validator.Validate(record); err != nil {
			result.Rejected = append(result.Rejected, transaction.ValidationFailure{
				TransactionID: record.TransactionID,
				Reason:        reasonOf(err),
			})
			continue
		}
		result.Accepted = append(result.Accepted, record)
	}

	c.logger.Debug("Batch processed",
		"format", format,
		"bytes", len(content),
		"accepted", len(result.Accepted),
		"rejected", len(result.Rejected),
	)

	return result, nil
}

func (c *Coordinator) readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, transaction.ErrUnreadableStream
	}

	content, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transaction.ErrUnreadableStream, err)
	}
	if int64(len(content)) > c.maxBytes {
		return nil, transaction.ErrStreamTooLarge{Limit: c.maxBytes}
	}
	if len(content) == 0 {
		return nil, transaction.ErrEmptyStream
	}
	return content, nil
}

func reasonOf(err error) string {
	var violation *RuleViolation
	if errors.As(err, &violation) {
		return violation.Reason
	}
	return err.Error()
}
