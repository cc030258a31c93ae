package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a cart was modified since the caller read it.
	ErrConflict = errors.New("version conflict")
	// ErrVariantUnavailable is returned when adding a variant that is not for sale.
	ErrVariantUnavailable = errors.New("variant not available for sale")
)
