package errors

import "errors"

var (
	ErrNotFound = errors.New("payment not found")

	ErrDuplicateOrder = errors.New("order ID already exists")

	// ErrAlreadySettled means the payment is already paid and a later
	// notification tried to move it elsewhere.
	ErrAlreadySettled = errors.New("payment is already settled")
)
