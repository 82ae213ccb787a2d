package usecase

import "errors"

var (
	// ErrValidation marks an event or request rejected before touching storage.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a mutation that targeted a row the caller does not own
	// or that does not exist.
	ErrNotFound = errors.New("notification not found")
)
