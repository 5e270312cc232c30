package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/lock"
	"github.com/prn-tf/tonearm/internal/metrics"
	"github.com/prn-tf/tonearm/internal/repository"
)

// CatalogService manages artists and albums.
type CatalogService struct {
	store   repository.Store
	locker  lock.Locker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCatalogService creates a new CatalogService. locker and m may be nil.
func NewCatalogService(store repository.Store, locker lock.Locker, m *metrics.Metrics, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:   store,
		locker:  locker,
		metrics: m,
		logger:  logger.With().Str("service", "catalog").Logger(),
	}
}

// AddAlbumInput is the raw album form.
type AddAlbumInput struct {
	AlbumName  string
	SongCount  string
	ArtistName string
}

// AddAlbumOutput contains the created album and its artist.
type AddAlbumOutput struct {
	Album         *domain.Album
	Artist        *domain.Artist
	ArtistCreated bool
}

// AddAlbum creates an album, creating its artist first when no artist
// has exactly that name.
func (s *CatalogService) AddAlbum(ctx context.Context, input AddAlbumInput) (*AddAlbumOutput, error) {
	if input.AlbumName == "" || input.SongCount == "" || input.ArtistName == "" {
		return nil, NewValidationError(MsgAllFieldsRequired)
	}

	songCount, err := strconv.Atoi(strings.TrimSpace(input.SongCount))
	if err != nil || songCount < 0 {
		return nil, NewValidationError(MsgSongCountInvalid)
	}

	out := &AddAlbumOutput{}
	start := time.Now()
	err = lock.WithLock(ctx, s.locker, lock.Keys.Artist(input.ArtistName), func() error {
		return s.store.WithTx(ctx, repository.TxOptions{}, func(repos *repository.Repositories) error {
			artist, err := repos.Artist.GetByName(ctx, input.ArtistName)
			switch {
			case errors.Is(err, domain.ErrArtistNotFound):
				artist = &domain.Artist{Name: input.ArtistName}
				if err := repos.Artist.Create(ctx, artist); err != nil {
					return err
				}
				out.ArtistCreated = true
			case err != nil:
				return err
			}

			album := domain.NewAlbum(input.AlbumName, songCount, artist.ID)
			if err := repos.Album.Create(ctx, album); err != nil {
				return err
			}
			album.ArtistName = artist.Name

			out.Album = album
			out.Artist = artist
			return nil
		})
	})
	s.metrics.ObserveTx("add_album", "default", start)

	if err != nil {
		s.logger.Error().Err(err).Str("album", input.AlbumName).Msg("failed to add album")
		return nil, internal(err)
	}

	s.metrics.RecordAlbumCreated(out.ArtistCreated)
	s.logger.Info().
		Int64("album_id", out.Album.ID).
		Int64("artist_id", out.Artist.ID).
		Bool("artist_created", out.ArtistCreated).
		Msg("album added")

	return out, nil
}

// ListAlbums returns every album with its artist name, ordered by ID.
func (s *CatalogService) ListAlbums(ctx context.Context) ([]*domain.Album, error) {
	var albums []*domain.Album
	err := s.store.WithTx(ctx, repository.ReadOnly, func(repos *repository.Repositories) error {
		var err error
		albums, err = repos.Album.List(ctx)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list albums")
		return nil, internal(err)
	}
	return albums, nil
}
