package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

// reviewRepository implements repository.ReviewRepository for SQLite.
type reviewRepository struct {
	q Querier
}

// NewReviewRepository creates a new SQLite review repository.
func NewReviewRepository(q Querier) repository.ReviewRepository {
	return &reviewRepository{q: q}
}

// Create inserts the review.
func (r *reviewRepository) Create(ctx context.Context, review *domain.AlbumReview) error {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO albumreviews (score, text, album, "user") VALUES (?, ?, ?, ?)`,
		review.Score, review.Text, review.AlbumID, review.UserID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewDomainError(domain.ErrReferenceMissing, "review album or user", "")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	review.ID = id

	return nil
}

// AverageScore returns AVG(score) for the album, nil when there are no reviews.
func (r *reviewRepository) AverageScore(ctx context.Context, albumID int64) (*float64, error) {
	var avg sql.NullFloat64
	err := r.q.QueryRowContext(ctx,
		`SELECT AVG(score) FROM albumreviews WHERE album = ?`, albumID,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to average scores: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// ListByAlbum joins reviews with their authors.
func (r *reviewRepository) ListByAlbum(ctx context.Context, albumID int64) ([]*domain.ReviewLine, error) {
	query := `
		SELECT r.score, r.text, u.username
		FROM albumreviews r
		JOIN user_account u ON u.user_id = r."user"
		WHERE r.album = ?
		ORDER BY r.review_id
	`

	rows, err := r.q.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var lines []*domain.ReviewLine
	for rows.Next() {
		line := &domain.ReviewLine{}
		if err := rows.Scan(&line.Rating, &line.Text, &line.Username); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return lines, nil
}

// DeleteByUser removes every review written by userID.
func (r *reviewRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM albumreviews WHERE "user" = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

var _ repository.ReviewRepository = (*reviewRepository)(nil)
