package errors

import "errors"

var (
	ErrNotFound = errors.New("member not found")

	ErrInvalidID = errors.New("invalid member ID format")

	ErrAlreadyRegistered = errors.New("user is already registered as a member")

	ErrDuplicateKTP = errors.New("KTP number is already registered")

	ErrAlreadyReviewed = errors.New("member verification has already been reviewed")
)
