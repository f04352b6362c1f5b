package exporter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"mentedigital/internal/survey"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for unknown format names
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat resolves a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns base with the format extension
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Write exports the table in the given format
func Write(w io.Writer, f Format, table *survey.Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, table, CSVOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, table, XLSXOptions{})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}
