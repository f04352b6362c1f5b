package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"mentedigital/internal/survey"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
	// Comma overrides the field delimiter
	Comma rune
}

// WriteCSV writes the table header and records as CSV
func WriteCSV(w io.Writer, table *survey.Table, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if opts.Comma != 0 {
		writer.Comma = opts.Comma
	}

	if err := writer.Write(table.Columns()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range table.Strings() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
