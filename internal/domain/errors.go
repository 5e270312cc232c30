// Package domain contains the core business entities for Tonearm.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ===========================================
	// Catalog Errors
	// ===========================================

	// ErrArtistNotFound indicates the requested artist does not exist.
	ErrArtistNotFound = errors.New("artist not found")

	// ErrAlbumNotFound indicates the requested album does not exist.
	ErrAlbumNotFound = errors.New("album not found")

	// ===========================================
	// Review Errors
	// ===========================================

	// ErrReferenceMissing indicates a foreign key pointed at a missing row.
	ErrReferenceMissing = errors.New("referenced record does not exist")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., username, album name).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// IsNotFound reports whether err is one of the not-found errors,
// including a write that referenced a row that no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrArtistNotFound) ||
		errors.Is(err, ErrAlbumNotFound) ||
		errors.Is(err, ErrReferenceMissing)
}
