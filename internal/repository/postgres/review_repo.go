package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

// reviewRepository implements repository.ReviewRepository.
// "user" is a reserved word in PostgreSQL and is always quoted.
type reviewRepository struct {
	q Querier
}

// NewReviewRepository creates a new PostgreSQL review repository.
func NewReviewRepository(q Querier) repository.ReviewRepository {
	return &reviewRepository{q: q}
}

// Create inserts the review and takes its ID from RETURNING.
func (r *reviewRepository) Create(ctx context.Context, review *domain.AlbumReview) error {
	query, args, err := psql.Insert("albumreviews").
		Columns("score", "text", "album", `"user"`).
		Values(review.Score, review.Text, review.AlbumID, review.UserID).
		Suffix("RETURNING review_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&review.ID); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewDomainError(domain.ErrReferenceMissing, "review album or user", "")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// AverageScore returns AVG(score) for the album; NULL scans to nil.
func (r *reviewRepository) AverageScore(ctx context.Context, albumID int64) (*float64, error) {
	query, args, err := psql.Select("AVG(score)").
		From("albumreviews").
		Where(squirrel.Eq{"album": albumID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building average query: %w", err)
	}

	var avg *float64
	if err := r.q.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to average scores: %w", err)
	}
	return avg, nil
}

// ListByAlbum joins reviews with their authors.
func (r *reviewRepository) ListByAlbum(ctx context.Context, albumID int64) ([]*domain.ReviewLine, error) {
	query, args, err := psql.Select("r.score AS rating", "r.text AS text", "u.username AS username").
		From("albumreviews r").
		Join(`user_account u ON u.user_id = r."user"`).
		Where(squirrel.Eq{"r.album": albumID}).
		OrderBy("r.review_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var lines []*domain.ReviewLine
	if err := pgxscan.Select(ctx, r.q, &lines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return lines, nil
}

// DeleteByUser removes every review written by userID.
func (r *reviewRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	query, args, err := psql.Delete("albumreviews").
		Where(squirrel.Eq{`"user"`: userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.ReviewRepository = (*reviewRepository)(nil)
