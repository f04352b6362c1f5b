// Package source fetches the raw survey export and keeps the latest
// snapshot in a short-lived read-through cache.
package source

import (
	"context"
	"errors"
)

// Source returns the raw rows of the survey export, header row first
type Source interface {
	Fetch(ctx context.Context) ([][]string, error)
	Name() string
}

// ErrBadStatus is returned when the export endpoint answers with a non-2xx status
var ErrBadStatus = errors.New("unexpected status from survey source")

// ErrTooLarge is returned when the export exceeds the size limit
var ErrTooLarge = errors.New("survey export exceeds size limit")

// ErrNoRows is returned when the export holds not even a header row
var ErrNoRows = errors.New("survey source returned no rows")
