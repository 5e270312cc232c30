// Package repository defines data access interfaces for Tonearm.
// These interfaces abstract database operations, allowing for different implementations
// (PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/tonearm/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create inserts a new user and sets user.ID from the insert.
	// Returns domain.ErrUserAlreadyExists on a username collision.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// SetAddMusicPerm sets the add-music permission flag.
	SetAddMusicPerm(ctx context.Context, id int64, allowed bool) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id int64) error

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*domain.User, error)

	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Catalog Repositories
// =============================================================================

// ArtistRepository defines the interface for artist data access.
type ArtistRepository interface {
	// Create inserts a new artist and sets artist.ID from the insert.
	Create(ctx context.Context, artist *domain.Artist) error

	// GetByName retrieves the first artist with exactly the given name.
	GetByName(ctx context.Context, name string) (*domain.Artist, error)

	// Count returns the number of artists.
	Count(ctx context.Context) (int64, error)
}

// AlbumRepository defines the interface for album data access.
type AlbumRepository interface {
	// Create inserts a new album and sets album.ID from the insert.
	// Returns domain.ErrReferenceMissing when the artist does not exist.
	Create(ctx context.Context, album *domain.Album) error

	// GetByName retrieves the first album with exactly the given name.
	GetByName(ctx context.Context, name string) (*domain.Album, error)

	// List returns all albums with their artist names, ordered by ID.
	List(ctx context.Context) ([]*domain.Album, error)
}

// =============================================================================
// Review Repository
// =============================================================================

// ReviewRepository defines the interface for album review data access.
type ReviewRepository interface {
	// Create inserts a new review and sets review.ID from the insert.
	// Returns domain.ErrReferenceMissing when the album or user does not exist.
	Create(ctx context.Context, review *domain.AlbumReview) error

	// AverageScore returns the mean score of an album's reviews,
	// or nil when the album has none.
	AverageScore(ctx context.Context, albumID int64) (*float64, error)

	// ListByAlbum returns an album's reviews joined with reviewer usernames,
	// ordered by review ID.
	ListByAlbum(ctx context.Context, albumID int64) ([]*domain.ReviewLine, error)

	// DeleteByUser removes every review written by a user and returns the count.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
