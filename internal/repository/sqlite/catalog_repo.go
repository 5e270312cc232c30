package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

// =============================================================================
// Artists
// =============================================================================

type artistRepository struct {
	q Querier
}

// NewArtistRepository creates a new SQLite artist repository.
func NewArtistRepository(q Querier) repository.ArtistRepository {
	return &artistRepository{q: q}
}

// Create inserts the artist.
func (r *artistRepository) Create(ctx context.Context, artist *domain.Artist) error {
	result, err := r.q.ExecContext(ctx, `INSERT INTO artists (name) VALUES (?)`, artist.Name)
	if err != nil {
		return fmt.Errorf("failed to create artist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	artist.ID = id

	return nil
}

// GetByName returns the oldest artist with exactly this name.
func (r *artistRepository) GetByName(ctx context.Context, name string) (*domain.Artist, error) {
	query := `
		SELECT artist_id, name
		FROM artists
		WHERE name = ?
		ORDER BY artist_id
		LIMIT 1
	`

	artist := &domain.Artist{}
	if err := r.q.QueryRowContext(ctx, query, name).Scan(&artist.ID, &artist.Name); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return artist, nil
}

// Count returns the number of artists.
func (r *artistRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.q, "artists")
}

// =============================================================================
// Albums
// =============================================================================

const albumSelect = `
	SELECT a.album_id, a.album_name, a.num_of_songs, a.artist, ar.name
	FROM albums a
	JOIN artists ar ON ar.artist_id = a.artist
`

type albumRepository struct {
	q Querier
}

// NewAlbumRepository creates a new SQLite album repository.
func NewAlbumRepository(q Querier) repository.AlbumRepository {
	return &albumRepository{q: q}
}

// Create inserts the album.
func (r *albumRepository) Create(ctx context.Context, album *domain.Album) error {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO albums (album_name, num_of_songs, artist) VALUES (?, ?, ?)`,
		album.Name, album.NumOfSongs, album.ArtistID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewDomainError(domain.ErrReferenceMissing, "album artist", fmt.Sprint(album.ArtistID))
		}
		return fmt.Errorf("failed to create album: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	album.ID = id

	return nil
}

// GetByName returns the oldest album with exactly this name.
func (r *albumRepository) GetByName(ctx context.Context, name string) (*domain.Album, error) {
	query := albumSelect + `
		WHERE a.album_name = ?
		ORDER BY a.album_id
		LIMIT 1
	`

	album := &domain.Album{}
	err := r.q.QueryRowContext(ctx, query, name).Scan(
		&album.ID,
		&album.Name,
		&album.NumOfSongs,
		&album.ArtistID,
		&album.ArtistName,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAlbumNotFound
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return album, nil
}

// List returns all albums ordered by ID.
func (r *albumRepository) List(ctx context.Context) ([]*domain.Album, error) {
	rows, err := r.q.QueryContext(ctx, albumSelect+` ORDER BY a.album_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []*domain.Album
	for rows.Next() {
		album := &domain.Album{}
		if err := rows.Scan(
			&album.ID,
			&album.Name,
			&album.NumOfSongs,
			&album.ArtistID,
			&album.ArtistName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}

	return albums, nil
}

var (
	_ repository.ArtistRepository = (*artistRepository)(nil)
	_ repository.AlbumRepository  = (*albumRepository)(nil)
)
