package survey

import (
	"errors"
	"fmt"
)

// Aggregation errors
var (
	// ErrFieldNotFound is returned when a requested column is absent
	ErrFieldNotFound = errors.New("field not found")
	// ErrNoValidData is returned when a column exists but holds no usable value
	ErrNoValidData = errors.New("no valid data")
	// ErrInsufficientData is returned when a pyramid has fewer than two categories
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNotBinary is returned when a pyramid has more than two categories
	ErrNotBinary = errors.New("category field is not binary")
)

func fieldNotFound(field string) error {
	return fmt.Errorf("%w: %q", ErrFieldNotFound, field)
}

func noValidData(field string) error {
	return fmt.Errorf("%w for field %q", ErrNoValidData, field)
}
