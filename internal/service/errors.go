// Package service provides business logic services for Tonearm.
package service

import (
	"errors"
	"fmt"

	"github.com/prn-tf/tonearm/internal/domain"
)

// Common service errors.
var (
	// User errors
	ErrUserNotFound       = domain.ErrUserNotFound
	ErrUserAlreadyExists  = domain.ErrUserAlreadyExists
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrUnknownUsername    = fmt.Errorf("%w: unknown username", ErrInvalidCredentials)
	ErrIncorrectPassword  = fmt.Errorf("%w: incorrect password", ErrInvalidCredentials)

	// Catalog errors
	ErrAlbumNotFound = domain.ErrAlbumNotFound

	// General errors
	ErrInternalError = errors.New("internal server error")
)

// User-facing messages.
const (
	MsgUsernameAndPasswordRequired = "Username and password is required."
	MsgUsernameRequired            = "Username is required."
	MsgPasswordRequired            = "Password is required."
	MsgUserExists                  = "User with that username already exists!"
	MsgIncorrectUsername           = "Incorrect username!"
	MsgIncorrectPassword           = "Incorrect password!!!"
	MsgNewPasswordRequired         = "New password is required."
	MsgAllFieldsRequired           = "Please enter info for all three fields"
	MsgSongCountInvalid            = "Song count must be a whole number."
	MsgRatingInvalid               = "Rating must be a number."
	MsgSelectAlbum                 = "Please select an album!"
	MsgAlbumNotFound               = "Album not found!"
)

// ValidationError is a rejected form submission. Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// internal wraps an unexpected failure as ErrInternalError, keeping the cause in the message.
func internal(err error) error {
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
