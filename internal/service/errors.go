package service

import "errors"

// Callers test with errors.Is; the wrapped cause is kept for logging.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("invalid input")
	ErrStoreOperation = errors.New("store operation failed")
	ErrAuth           = errors.New("authentication failed")
)
