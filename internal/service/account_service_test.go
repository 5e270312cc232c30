package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/lock"
	"github.com/prn-tf/tonearm/internal/metrics"
	"github.com/prn-tf/tonearm/internal/repository"
)

func newAccountService(store *MockStore) *AccountService {
	return NewAccountService(store, lock.NewMemoryLocker(), metrics.New(), zerolog.Nop())
}

func TestAccountService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    RegisterInput
		expected string
	}{
		{name: "both empty", input: RegisterInput{}, expected: MsgUsernameAndPasswordRequired},
		{name: "username empty", input: RegisterInput{Password: "pw"}, expected: MsgUsernameRequired},
		{name: "password empty", input: RegisterInput{Username: "alice"}, expected: MsgPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockStore()
			svc := newAccountService(store)

			_, err := svc.Register(context.Background(), tt.input)
			verr, ok := IsValidationError(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, tt.expected, verr.Message)
			assert.Empty(t, store.txs, "validation runs before any unit of work")
		})
	}
}

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Should privilege only the first user", func(t *testing.T) {
		store := NewMockStore()
		svc := newAccountService(store)

		alice, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
		require.NoError(t, err)
		assert.True(t, alice.CanAddMusic())
		assert.NotEqual(t, "pw", alice.PasswordHash)

		bob, err := svc.Register(ctx, RegisterInput{Username: "bob", Password: "pw"})
		require.NoError(t, err)
		assert.False(t, bob.CanAddMusic())
		require.NotNil(t, bob.AddMusicPerm)

		assert.Equal(t, repository.IsolationSerializable, store.lastTx().Isolation)
	})

	t.Run("Should reject duplicate usernames without a second row", func(t *testing.T) {
		store := NewMockStore()
		svc := newAccountService(store)

		_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "other"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)

		users, err := svc.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("Should decide the first user under the registration lock", func(t *testing.T) {
		store := NewMockStore()
		locker := new(MockLocker)
		key := lock.Keys.Registration()
		locker.On("AcquireWithRetry", mock.Anything, key, lock.DefaultTTL, lock.DefaultRetries, lock.DefaultRetryDelay).Return("t1", true, nil).Once()
		locker.On("Release", mock.Anything, key, "t1").Return(true, nil).Once()

		_, err := NewAccountService(store, locker, nil, zerolog.Nop()).
			Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
		require.NoError(t, err)
		locker.AssertExpectations(t)
	})

	t.Run("Should fail without a write when the lock stays busy", func(t *testing.T) {
		store := NewMockStore()
		locker := new(MockLocker)
		locker.On("AcquireWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", false, nil)

		_, err := NewAccountService(store, locker, nil, zerolog.Nop()).
			Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, ErrInternalError)
		assert.Empty(t, store.txs)
		locker.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should wrap storage failures", func(t *testing.T) {
		store := NewMockStore()
		store.txErr = errors.New("disk full")

		_, err := newAccountService(store).Register(ctx, RegisterInput{Username: "a", Password: "b"})
		assert.ErrorIs(t, err, ErrInternalError)
	})
}

func TestAccountService_Authenticate(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := newAccountService(store)

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "alice", password: "secret"},
		{name: "unknown username", username: "mallory", password: "secret", wantErr: ErrUnknownUsername},
		{name: "wrong password", username: "alice", password: "nope", wantErr: ErrIncorrectPassword},
		{name: "empty username", username: "", password: "", wantErr: ErrUnknownUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			assert.True(t, store.lastTx().ReadOnly)
		})
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Should require a new password", func(t *testing.T) {
		err := newAccountService(NewMockStore()).ChangePassword(ctx, 1, "")
		verr, ok := IsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, MsgNewPasswordRequired, verr.Message)
	})

	t.Run("Should replace the password", func(t *testing.T) {
		svc := newAccountService(NewMockStore())
		user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "old"})
		require.NoError(t, err)

		require.NoError(t, svc.ChangePassword(ctx, user.ID, "new"))

		_, err = svc.Authenticate(ctx, "alice", "old")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
		_, err = svc.Authenticate(ctx, "alice", "new")
		assert.NoError(t, err)
	})

	t.Run("Should report a vanished user as not found", func(t *testing.T) {
		err := newAccountService(NewMockStore()).ChangePassword(ctx, 404, "new")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestAccountService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	accounts := newAccountService(store)
	catalog := NewCatalogService(store, nil, nil, zerolog.Nop())
	reviews := NewReviewService(store, repository.IsolationDefault, nil, zerolog.Nop())

	alice, err := accounts.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	bob, err := accounts.Register(ctx, RegisterInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	_, err = catalog.AddAlbum(ctx, AddAlbumInput{AlbumName: "OK Computer", SongCount: "12", ArtistName: "Radiohead"})
	require.NoError(t, err)
	_, err = reviews.AddReview(ctx, alice.ID, AddReviewInput{AlbumName: "OK Computer", Rating: "9.5", Text: "a"})
	require.NoError(t, err)
	_, err = reviews.AddReview(ctx, bob.ID, AddReviewInput{AlbumName: "OK Computer", Rating: "6", Text: "b"})
	require.NoError(t, err)

	removed, err := accounts.DeleteUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = accounts.GetUser(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	rating, err := reviews.AlbumRating(ctx, "OK Computer")
	require.NoError(t, err)
	require.Len(t, rating.Reviews, 1)
	assert.Equal(t, "alice", rating.Reviews[0].Username)
	assert.InDelta(t, 9.5, *rating.AverageRating, 1e-9)

	_, err = accounts.DeleteUser(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAccountService_SetAddMusicPerm(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(NewMockStore())

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	bob, err := svc.SetAddMusicPerm(ctx, "bob", true)
	require.NoError(t, err)
	assert.True(t, bob.CanAddMusic())

	reloaded, err := svc.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CanAddMusic())

	_, err = svc.SetAddMusicPerm(ctx, "ghost", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
