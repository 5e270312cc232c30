package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/lock"
	"github.com/prn-tf/tonearm/internal/metrics"
	"github.com/prn-tf/tonearm/internal/pkg/crypto"
	"github.com/prn-tf/tonearm/internal/repository"
)

// serializable is used where a read decides what gets written.
var serializable = repository.TxOptions{Isolation: repository.IsolationSerializable}

// AccountService handles registration, login and self-service account changes.
type AccountService struct {
	store   repository.Store
	locker  lock.Locker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAccountService creates a new AccountService. locker and m may be nil.
func NewAccountService(store repository.Store, locker lock.Locker, m *metrics.Metrics, logger zerolog.Logger) *AccountService {
	return &AccountService{
		store:   store,
		locker:  locker,
		metrics: m,
		logger:  logger.With().Str("service", "account").Logger(),
	}
}

// RegisterInput contains the data needed to register a user.
type RegisterInput struct {
	Username string
	Password string
}

// Register creates an account. The first account ever created holds the
// add-music permission; later ones do not.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := validateRegister(input); err != nil {
		s.metrics.RecordRegistration("invalid")
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, internal(err)
	}

	var user *domain.User
	start := time.Now()
	err = lock.WithLock(ctx, s.locker, lock.Keys.Registration(), func() error {
		return s.store.WithTx(ctx, serializable, func(repos *repository.Repositories) error {
			count, err := repos.User.Count(ctx)
			if err != nil {
				return err
			}

			user = domain.NewUser(input.Username, passwordHash, count == 0)
			return repos.User.Create(ctx, user)
		})
	})
	s.metrics.ObserveTx("register", repository.IsolationSerializable.String(), start)

	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			s.metrics.RecordRegistration("duplicate")
			return nil, domain.NewDomainError(ErrUserAlreadyExists, "username taken", input.Username)
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, internal(err)
	}

	s.metrics.RecordRegistration("success")
	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Bool("add_music_perm", user.CanAddMusic()).
		Msg("user registered")

	return user, nil
}

func validateRegister(input RegisterInput) error {
	switch {
	case input.Username == "" && input.Password == "":
		return NewValidationError(MsgUsernameAndPasswordRequired)
	case input.Username == "":
		return NewValidationError(MsgUsernameRequired)
	case input.Password == "":
		return NewValidationError(MsgPasswordRequired)
	}
	return nil
}

// Authenticate verifies credentials. It returns ErrUnknownUsername or
// ErrIncorrectPassword, both of which wrap ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	var user *domain.User
	err := s.store.WithTx(ctx, repository.ReadOnly, func(repos *repository.Repositories) error {
		var err error
		user, err = repos.User.GetByUsername(ctx, username)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.RecordLogin("unknown_username")
			s.logger.Debug().Str("username", username).Msg("unknown username during authentication")
			return nil, ErrUnknownUsername
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to load user")
		return nil, internal(err)
	}

	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		s.metrics.RecordLogin("bad_password")
		if !errors.Is(err, crypto.ErrPasswordMismatch) {
			s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("stored password hash is unreadable")
		}
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return nil, ErrIncorrectPassword
	}

	s.metrics.RecordLogin("success")
	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, nil
}

// GetUser loads a user by ID in a read-only unit of work.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := s.store.WithTx(ctx, repository.ReadOnly, func(repos *repository.Repositories) error {
		var err error
		user, err = repos.User.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, internal(err)
	}
	return user, nil
}

// ListUsers returns every user ordered by ID.
func (s *AccountService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.store.WithTx(ctx, repository.ReadOnly, func(repos *repository.Repositories) error {
		var err error
		users, err = repos.User.List(ctx)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, internal(err)
	}
	return users, nil
}

// ChangePassword replaces the user's password.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	if newPassword == "" {
		return NewValidationError(MsgNewPasswordRequired)
	}

	passwordHash, err := crypto.HashPassword(newPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return internal(err)
	}

	err = s.store.WithTx(ctx, repository.TxOptions{}, func(repos *repository.Repositories) error {
		return repos.User.UpdatePassword(ctx, userID, passwordHash)
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NewDomainError(ErrUserNotFound, "password change", "")
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to update password")
		return internal(err)
	}

	s.logger.Info().Int64("user_id", userID).Msg("password updated")
	return nil
}

// DeleteUser removes the user and every review they wrote in one unit of work.
// It returns how many reviews were removed.
func (s *AccountService) DeleteUser(ctx context.Context, userID int64) (int64, error) {
	var removed int64
	err := s.store.WithTx(ctx, repository.TxOptions{}, func(repos *repository.Repositories) error {
		var err error
		if removed, err = repos.Review.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return repos.User.Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return 0, domain.NewDomainError(ErrUserNotFound, "delete", "")
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to delete user")
		return 0, internal(err)
	}

	s.metrics.RecordUserDeleted()
	s.logger.Info().
		Int64("user_id", userID).
		Int64("reviews_removed", removed).
		Msg("user deleted")

	return removed, nil
}

// SetAddMusicPerm grants or revokes the add-music permission by username.
func (s *AccountService) SetAddMusicPerm(ctx context.Context, username string, allowed bool) (*domain.User, error) {
	var user *domain.User
	err := s.store.WithTx(ctx, repository.TxOptions{}, func(repos *repository.Repositories) error {
		var err error
		if user, err = repos.User.GetByUsername(ctx, username); err != nil {
			return err
		}
		if err := repos.User.SetAddMusicPerm(ctx, user.ID, allowed); err != nil {
			return err
		}
		user.AddMusicPerm = &allowed
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NewDomainError(ErrUserNotFound, "set permission", username)
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to set permission")
		return nil, internal(err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Bool("add_music_perm", allowed).
		Msg("permission updated")

	return user, nil
}
