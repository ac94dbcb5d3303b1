package errors

import "errors"

var (
	ErrNotFound = errors.New("book not found")

	ErrInvalidID = errors.New("invalid book ID format")

	ErrOutOfStock = errors.New("book is out of stock")

	ErrStockUnderflow = errors.New("stock adjustment would make stock negative")
)
