package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var userColumns = []string{"user_id", "username", "password", "add_music_perm"}

// userRepository implements repository.UserRepository.
type userRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(q Querier) repository.UserRepository {
	return &userRepository{q: q}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query, args, err := psql.Insert("user_account").
		Columns("username", "password", "add_music_perm").
		Values(user.Username, user.PasswordHash, user.AddMusicPerm).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": id})
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *userRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("user_account").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var user domain.User
	if err := pgxscan.Get(ctx, r.q, &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, "password", passwordHash)
}

// SetAddMusicPerm sets the add-music permission flag.
func (r *userRepository) SetAddMusicPerm(ctx context.Context, id int64, allowed bool) error {
	return r.update(ctx, id, "add_music_perm", allowed)
}

func (r *userRepository) update(ctx context.Context, id int64, column string, value any) error {
	query, args, err := psql.Update("user_account").
		Set(column, value).
		Where(squirrel.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Delete deletes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("user_account").
		Where(squirrel.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List returns all users ordered by ID.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("user_account").
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var users []*domain.User
	if err := pgxscan.Select(ctx, r.q, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.q, "user_account")
}

func count(ctx context.Context, q Querier, table string) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var n int64
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

var _ repository.UserRepository = (*userRepository)(nil)
