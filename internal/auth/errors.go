// Package auth resolves the request identity from the session cookie and
// guards routes that need a logged-in user.
package auth

import "errors"

// Authentication errors.
var (
	// ErrNotAuthenticated indicates the request carries no logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)
