package transaction

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrEmptyStream is returned when a batch carries no bytes or no header
	ErrEmptyStream = errors.New("batch stream is empty")
	// ErrUnreadableStream wraps I/O and document-level decode failures
	ErrUnreadableStream = errors.New("batch stream is unreadable")
)

// ErrUnsupportedFormat indicates a file extension no parser handles
type ErrUnsupportedFormat struct {
	Extension string
}

func (e ErrUnsupportedFormat) Error() string {
	if e.Extension == "" {
		return "unknown file format"
	}
	return "unknown file format: " + e.Extension
}

// Is matches any ErrUnsupportedFormat when the target carries no extension
func (e ErrUnsupportedFormat) Is(target error) bool {
	t, ok := target.(ErrUnsupportedFormat)
	if !ok {
		return false
	}
	return t.Extension == "" || t.Extension == e.Extension
}

// ErrStreamTooLarge indicates a batch above the configured size ceiling
type ErrStreamTooLarge struct {
	Limit int64
}

func (e ErrStreamTooLarge) Error() string {
	return "batch stream exceeds " + strconv.FormatInt(e.Limit, 10) + " bytes"
}

func (e ErrStreamTooLarge) Is(target error) bool {
	_, ok := target.(ErrStreamTooLarge)
	return ok
}

// ErrUnrecognizedStatus indicates a status value outside the format's vocabulary
type ErrUnrecognizedStatus struct {
	Format Format
	Value  string
}

func (e ErrUnrecognizedStatus) Error() string {
	return fmt.Sprintf("unknown status %q", e.Value)
}

func (e ErrUnrecognizedStatus) Is(target error) bool {
	_, ok := target.(ErrUnrecognizedStatus)
	return ok
}

// ErrMissingColumn indicates a delimited-text row without a required column
type ErrMissingColumn struct {
	Column string
}

func (e ErrMissingColumn) Error() string {
	return "missing column " + e.Column
}

// ErrMissingElement indicates a markup transaction without a required element or attribute
type ErrMissingElement struct {
	Path string
}

func (e ErrMissingElement) Error() string {
	return "missing element " + e.Path
}

// ErrInvalidField indicates a value that could not be converted to its field type
type ErrInvalidField struct {
	Field string
	Value string
	Err   error
}

func (e ErrInvalidField) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e ErrInvalidField) Unwrap() error {
	return e.Err
}
