package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrMissingResource = errors.New("missing resource")
	ErrSchema          = errors.New("schema mismatch")
	ErrIntegrity       = errors.New("integrity violation")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNotFound        = errors.New("not found")
)
