// Package domain contains the core business entities for Tonearm.
// These are pure Go structs with no external dependencies, representing
// the users, artists, albums and reviews of the music review site.
package domain

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id" db:"user_id"`

	// Username is the unique username for login and display.
	Username string `json:"username" db:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in responses.
	PasswordHash string `json:"-" db:"password"`

	// AddMusicPerm records whether the user may curate the catalog.
	// Nil means the flag was never set.
	AddMusicPerm *bool `json:"add_music_perm,omitempty" db:"add_music_perm"`
}

// NewUser creates a new User with the given credentials and permission flag.
func NewUser(username, passwordHash string, addMusicPerm bool) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		AddMusicPerm: &addMusicPerm,
	}
}

// CanAddMusic reports whether the user holds the add-music permission.
func (u *User) CanAddMusic() bool {
	return u.AddMusicPerm != nil && *u.AddMusicPerm
}
