package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/metrics"
	"github.com/prn-tf/tonearm/internal/repository"
)

// ReviewService handles review submission and the album rating view.
type ReviewService struct {
	store     repository.Store
	aggregate repository.IsolationLevel
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewReviewService creates a new ReviewService. The album rating is read at
// the aggregate isolation level; IsolationDefault means read uncommitted.
func NewReviewService(store repository.Store, aggregate repository.IsolationLevel, m *metrics.Metrics, logger zerolog.Logger) *ReviewService {
	if aggregate == repository.IsolationDefault {
		aggregate = repository.IsolationReadUncommitted
	}
	return &ReviewService{
		store:     store,
		aggregate: aggregate,
		metrics:   m,
		logger:    logger.With().Str("service", "review").Logger(),
	}
}

// AddReviewInput is the raw review form.
type AddReviewInput struct {
	AlbumName string
	Rating    string
	Text      string
}

// AddReview records userID's review of the named album.
func (s *ReviewService) AddReview(ctx context.Context, userID int64, input AddReviewInput) (*domain.AlbumReview, error) {
	if input.AlbumName == "" || input.Rating == "" || input.Text == "" {
		return nil, NewValidationError(MsgAllFieldsRequired)
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(input.Rating), 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, NewValidationError(MsgRatingInvalid)
	}

	var review *domain.AlbumReview
	start := time.Now()
	err = s.store.WithTx(ctx, repository.TxOptions{}, func(repos *repository.Repositories) error {
		album, err := repos.Album.GetByName(ctx, input.AlbumName)
		if err != nil {
			return err
		}

		review = domain.NewAlbumReview(album.ID, userID, score, input.Text)
		return repos.Review.Create(ctx, review)
	})
	s.metrics.ObserveTx("add_review", "default", start)

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlbumNotFound):
			return nil, domain.NewDomainError(ErrAlbumNotFound, "add review", input.AlbumName)
		case errors.Is(err, domain.ErrReferenceMissing):
			// the album resolved in this tx, so the reviewer is the missing row
			return nil, domain.NewDomainError(ErrUserNotFound, "add review", strconv.FormatInt(userID, 10))
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Str("album", input.AlbumName).Msg("failed to add review")
		return nil, internal(err)
	}

	s.metrics.RecordReviewCreated()
	s.logger.Info().
		Int64("review_id", review.ID).
		Int64("album_id", review.AlbumID).
		Int64("user_id", userID).
		Msg("review added")

	return review, nil
}

// AlbumRating returns the album's mean score and its reviews joined with
// reviewer usernames. The read runs at the aggregate isolation level and
// may observe uncommitted reviews.
func (s *ReviewService) AlbumRating(ctx context.Context, albumName string) (*domain.AlbumRating, error) {
	if albumName == "" {
		return nil, NewValidationError(MsgSelectAlbum)
	}

	rating := &domain.AlbumRating{}
	opts := repository.TxOptions{Isolation: s.aggregate, ReadOnly: true}
	start := time.Now()
	err := s.store.WithTx(ctx, opts, func(repos *repository.Repositories) error {
		album, err := repos.Album.GetByName(ctx, albumName)
		if err != nil {
			return err
		}
		rating.Album = album

		if rating.AverageRating, err = repos.Review.AverageScore(ctx, album.ID); err != nil {
			return err
		}
		rating.Reviews, err = repos.Review.ListByAlbum(ctx, album.ID)
		return err
	})
	s.metrics.ObserveTx("album_rating", s.aggregate.String(), start)

	if err != nil {
		if errors.Is(err, domain.ErrAlbumNotFound) {
			return nil, domain.NewDomainError(ErrAlbumNotFound, "album rating", albumName)
		}
		s.logger.Error().Err(err).Str("album", albumName).Msg("failed to read album rating")
		return nil, internal(err)
	}

	return rating, nil
}
