package errors

import "errors"

var (
	ErrNotFound = errors.New("notification not found")

	ErrInvalidID = errors.New("invalid notification ID format")

	// ErrDuplicate means a notification with the same dedup key already exists.
	ErrDuplicate = errors.New("notification already delivered")
)
