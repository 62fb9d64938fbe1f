package dataset

import "errors"

var (
	// ErrNotFound is returned when no record matches an id, a value or a filter set.
	ErrNotFound = errors.New("dataset: not found")

	// ErrInvalidInput is returned when required fields or filters are absent or empty.
	ErrInvalidInput = errors.New("dataset: invalid input")

	// ErrUnsupportedValue is returned for values outside string, number, bool and null.
	ErrUnsupportedValue = errors.New("dataset: unsupported value")

	// ErrSourceUnavailable is returned when the tabular source cannot be opened or read.
	ErrSourceUnavailable = errors.New("dataset: source unavailable")
)
