package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
)

// DefaultCSVURL is the CSV export of the Mente Digital responses sheet
const DefaultCSVURL = "https://docs.google.com/spreadsheets/d/1M0YOy5YtE7BgeD45BAzVBXZCIGtAfdkonv0rHlri9sg/export?format=csv&gid=898962914"

// DefaultMaxExportBytes caps the body read from the export endpoint
const DefaultMaxExportBytes = 32 << 20

// CSVSource downloads a CSV export over HTTP. An export larger than
// MaxBytes fails instead of being parsed partially.
type CSVSource struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

// NewCSVSource creates a CSV source. A nil client means http.DefaultClient.
func NewCSVSource(url string, client *http.Client) *CSVSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &CSVSource{URL: url, Client: client, MaxBytes: DefaultMaxExportBytes}
}

// Name identifies the source in logs and traces
func (s *CSVSource) Name() string {
	return "csv"
}

// Fetch downloads and parses the export
func (s *CSVSource) Fetch(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxExportBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, limit)
	}
	return ParseCSV(body)
}

// ParseCSV parses CSV content leniently: stray quotes are accepted and rows
// may have any number of fields.
func ParseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}
