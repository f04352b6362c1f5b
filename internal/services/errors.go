package services

import "errors"

// Survey service errors
var (
	// ErrNoData is returned when the current snapshot holds no records,
	// usually because the source could not be fetched
	ErrNoData = errors.New("no survey data available")

	// ErrInvalidInput is returned for arguments the service cannot act on
	ErrInvalidInput = errors.New("invalid input")
)
