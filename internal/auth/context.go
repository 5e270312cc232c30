package auth

import (
	"context"

	"github.com/prn-tf/tonearm/internal/domain"
)

// Identity is the logged-in user resolved for one request.
type Identity struct {
	// UserID is the authenticated user's ID.
	UserID int64

	// Username is the authenticated user's username.
	Username string

	// AddMusicPerm mirrors the user's add-music permission.
	AddMusicPerm bool
}

// NewIdentity builds an Identity from a loaded user record.
func NewIdentity(user *domain.User) *Identity {
	return &Identity{
		UserID:       user.ID,
		Username:     user.Username,
		AddMusicPerm: user.CanAddMusic(),
	}
}

type identityContextKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the request identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey{}).(*Identity); ok {
		return id
	}
	return nil
}

// RequireIdentity returns the request identity or ErrNotAuthenticated.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil, ErrNotAuthenticated
	}
	return id, nil
}
