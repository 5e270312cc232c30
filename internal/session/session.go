// Package session keeps the per-browser session in a signed cookie.
// The cookie carries the logged-in user's id and pending flash messages;
// nothing is stored server-side.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/config"
)

// Session is the decoded cookie payload.
type Session struct {
	UserID  *int64   `json:"uid,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
}

// Login replaces the session contents with a fresh session for userID.
// Pending flashes are dropped.
func (s *Session) Login(userID int64) {
	s.Clear()
	s.UserID = &userID
}

// Clear drops the user id and every pending flash.
func (s *Session) Clear() {
	s.UserID = nil
	s.Flashes = nil
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.Flashes = append(s.Flashes, msg)
}

// PopFlashes returns and removes the pending flashes.
func (s *Session) PopFlashes() []string {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// IsEmpty reports whether the session carries nothing worth a cookie.
func (s *Session) IsEmpty() bool {
	return s.UserID == nil && len(s.Flashes) == 0
}

// Store encodes sessions into cookies.
type Store struct {
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool
	logger zerolog.Logger
}

// NewStore builds a cookie store from configuration.
// Without a configured hash key a random one is generated, so sessions
// do not survive a restart.
func NewStore(cfg config.SessionConfig, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "session").Logger()

	hashKey, blockKey, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(64)
		if hashKey == nil {
			return nil, errors.New("session: failed to generate hash key")
		}
		logger.Warn().Msg("session.hash_key not configured, using a random key; sessions will not survive restarts")
	}

	maxAge := int(cfg.MaxAge.Seconds())
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(maxAge)

	return &Store{
		codec:  codec,
		name:   cfg.CookieName,
		maxAge: maxAge,
		secure: cfg.Secure,
		logger: logger,
	}, nil
}

// Load decodes the request's session cookie. A missing, expired or
// tampered cookie yields an empty session.
func (st *Store) Load(r *http.Request) *Session {
	sess := &Session{}

	cookie, err := r.Cookie(st.name)
	if err != nil {
		return sess
	}

	if err := st.codec.Decode(st.name, cookie.Value, sess); err != nil {
		st.logger.Debug().Err(err).Msg("discarding undecodable session cookie")
		return &Session{}
	}
	return sess
}

// Save writes sess as a Set-Cookie header. An empty session expires the cookie.
// Save must run before the response status is written.
func (st *Store) Save(w http.ResponseWriter, sess *Session) error {
	if sess.IsEmpty() {
		st.expire(w)
		return nil
	}

	value, err := st.codec.Encode(st.name, sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     st.name,
		Value:    value,
		Path:     "/",
		MaxAge:   st.maxAge,
		Secure:   st.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (st *Store) expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     st.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   st.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Name returns the cookie name.
func (st *Store) Name() string {
	return st.name
}

type contextKey struct{}

// NewContext returns a context carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the request's session, or an empty detached
// session when none was attached.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(contextKey{}).(*Session); ok {
		return sess
	}
	return &Session{}
}
