package transaction

import (
	"path/filepath"
	"strings"
)

// Status is the canonical three-valued transaction status
type Status string

const (
	StatusApproved Status = "A"
	StatusRejected Status = "R"
	StatusDone     Status = "D"
)

// IsValid reports whether s is one of the canonical codes
func (s Status) IsValid() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusDone:
		return true
	}
	return false
}

// Format identifies the encoding of a batch file
type Format string

const (
	FormatCSV Format = "csv"
	FormatXML Format = "xml"
)

// FormatFromFileName derives the batch format from the file extension, case-insensitively
func FormatFromFileName(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xml":
		return FormatXML, nil
	}
	return "", ErrUnsupportedFormat{Extension: ext}
}

type statusKey struct {
	format Format
	raw    string
}

// statusVocabulary maps each format's status spelling onto the canonical code
var statusVocabulary = map[statusKey]Status{
	{FormatCSV, "Approved"}: StatusApproved,
	{FormatCSV, "Failed"}:   StatusRejected,
	{FormatCSV, "Finished"}: StatusDone,
	{FormatXML, "Approved"}: StatusApproved,
	{FormatXML, "Rejected"}: StatusRejected,
	{FormatXML, "Done"}:     StatusDone,
}

// NormalizeStatus translates a raw status value of the given format. Matching is exact.
func NormalizeStatus(format Format, raw string) (Status, error) {
	status, ok := statusVocabulary[statusKey{format: format, raw: raw}]
	if !ok {
		return "", ErrUnrecognizedStatus{Format: format, Value: raw}
	}
	return status, nil
}
