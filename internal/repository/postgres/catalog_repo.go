package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

// artistRepository implements repository.ArtistRepository.
type artistRepository struct {
	q Querier
}

// NewArtistRepository creates a new PostgreSQL artist repository.
func NewArtistRepository(q Querier) repository.ArtistRepository {
	return &artistRepository{q: q}
}

// Create inserts the artist and takes its ID from RETURNING.
func (r *artistRepository) Create(ctx context.Context, artist *domain.Artist) error {
	query, args, err := psql.Insert("artists").
		Columns("name").
		Values(artist.Name).
		Suffix("RETURNING artist_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&artist.ID); err != nil {
		return fmt.Errorf("failed to create artist: %w", err)
	}
	return nil
}

// GetByName retrieves the first artist with exactly the given name.
func (r *artistRepository) GetByName(ctx context.Context, name string) (*domain.Artist, error) {
	query, args, err := psql.Select("artist_id", "name").
		From("artists").
		Where(squirrel.Eq{"name": name}).
		OrderBy("artist_id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var artist domain.Artist
	if err := pgxscan.Get(ctx, r.q, &artist, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return &artist, nil
}

// Count returns the number of artists.
func (r *artistRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.q, "artists")
}

// albumRepository implements repository.AlbumRepository.
type albumRepository struct {
	q Querier
}

// NewAlbumRepository creates a new PostgreSQL album repository.
func NewAlbumRepository(q Querier) repository.AlbumRepository {
	return &albumRepository{q: q}
}

// Create inserts the album and takes its ID from RETURNING.
func (r *albumRepository) Create(ctx context.Context, album *domain.Album) error {
	query, args, err := psql.Insert("albums").
		Columns("album_name", "num_of_songs", "artist").
		Values(album.Name, album.NumOfSongs, album.ArtistID).
		Suffix("RETURNING album_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&album.ID); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewDomainError(domain.ErrReferenceMissing, "album artist", fmt.Sprint(album.ArtistID))
		}
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

// GetByName retrieves the first album with exactly the given name.
func (r *albumRepository) GetByName(ctx context.Context, name string) (*domain.Album, error) {
	query, args, err := albumSelect().
		Where(squirrel.Eq{"a.album_name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var album domain.Album
	if err := pgxscan.Get(ctx, r.q, &album, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrAlbumNotFound
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return &album, nil
}

// List returns all albums with their artist names.
func (r *albumRepository) List(ctx context.Context) ([]*domain.Album, error) {
	query, args, err := albumSelect().ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var albums []*domain.Album
	if err := pgxscan.Select(ctx, r.q, &albums, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

func albumSelect() squirrel.SelectBuilder {
	return psql.Select(
		"a.album_id", "a.album_name", "a.num_of_songs", "a.artist", "ar.name AS artist_name",
	).
		From("albums a").
		Join("artists ar ON ar.artist_id = a.artist").
		OrderBy("a.album_id")
}

var (
	_ repository.ArtistRepository = (*artistRepository)(nil)
	_ repository.AlbumRepository  = (*albumRepository)(nil)
)
