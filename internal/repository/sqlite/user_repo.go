package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	q Querier
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(q Querier) repository.UserRepository {
	return &userRepository{q: q}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO user_account (username, password, add_music_perm)
		VALUES (?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		nullableBool(user.AddMusicPerm),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT user_id, username, password, add_music_perm
		FROM user_account
		WHERE user_id = ?
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT user_id, username, password, add_music_perm
		FROM user_account
		WHERE username = ?
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, username))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var perm sql.NullBool
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &perm); err != nil {
		return nil, err
	}
	if perm.Valid {
		allowed := perm.Bool
		user.AddMusicPerm = &allowed
	}
	return user, nil
}

func (r *userRepository) scanOne(row *sql.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE user_account SET password = ? WHERE user_id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// SetAddMusicPerm sets the add-music permission flag.
func (r *userRepository) SetAddMusicPerm(ctx context.Context, id int64, allowed bool) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE user_account SET add_music_perm = ? WHERE user_id = ?`,
		boolToInt(allowed), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// Delete deletes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM user_account WHERE user_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// List returns all users ordered by ID.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT user_id, username, password, add_music_perm
		FROM user_account
		ORDER BY user_id
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.q, "user_account")
}

// count returns the row count of a fixed table name.
func count(ctx context.Context, q Querier, table string) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func requireAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

var _ repository.UserRepository = (*userRepository)(nil)
