package errors

import "errors"

var (
	ErrNotFound = errors.New("loan not found")

	ErrInvalidID = errors.New("invalid loan ID format")

	// ErrStaleLoan means a conditional update matched nothing because the
	// loan changed after it was read.
	ErrStaleLoan = errors.New("loan was modified concurrently")

	ErrNotBorrowed = errors.New("loan is not in borrowed state")
)
