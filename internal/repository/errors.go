package repository

import "errors"

// Repository errors
var (
	// ErrUnsupportedIsolation indicates a store cannot run at the requested level.
	ErrUnsupportedIsolation = errors.New("unsupported isolation level")
)
