package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/session"
)

// LoginPath is where anonymous requests to protected routes are sent.
const LoginPath = "/login"

// UserLoader loads the user a session points at.
type UserLoader interface {
	// GetUser returns domain.ErrUserNotFound when the user no longer exists.
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// SessionMiddleware decodes the session cookie and resolves the request identity.
//
// The session is attached to the request context for handlers to read and
// mutate. A session pointing at a deleted user resolves to anonymous with the
// stale id cleared in the context session; the handler's save writes the
// cookie once. Other lookup failures abort with 500.
func SessionMiddleware(sessions *session.Store, users UserLoader, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Load(r)
			ctx := session.NewContext(r.Context(), sess)

			if sess.UserID != nil {
				user, err := users.GetUser(ctx, *sess.UserID)
				switch {
				case err == nil:
					ctx = WithIdentity(ctx, NewIdentity(user))

				case errors.Is(err, domain.ErrUserNotFound):
					logger.Debug().Int64("user_id", *sess.UserID).Msg("session user no longer exists")
					sess.UserID = nil

				default:
					logger.Error().Err(err).Int64("user_id", *sess.UserID).Msg("failed to load session user")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects anonymous requests to LoginPath without calling next.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
