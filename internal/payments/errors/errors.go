package errors

import "errors"

var (
	ErrNotFound = errors.New("payment not found")

	// ErrDuplicate means a ledger record already exists for the intent.
	ErrDuplicate = errors.New("payment already recorded")
)
