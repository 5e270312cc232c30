package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tonearm/internal/repository"
)

func newMockDB(t *testing.T, def repository.IsolationLevel) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewDBFromPool(mockPool, def, zerolog.Nop()), mockPool
}

func TestDB_WithTx(t *testing.T) {
	t.Run("Should commit at the configured default isolation", func(t *testing.T) {
		db, mockPool := newMockDB(t, repository.IsolationDefault)
		mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
		mockPool.ExpectCommit()

		called := false
		err := db.WithTx(context.Background(), repository.TxOptions{}, func(repos *repository.Repositories) error {
			called = true
			assert.NotNil(t, repos.User)
			assert.NotNil(t, repos.Review)
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should run read uncommitted reads as read only", func(t *testing.T) {
		db, mockPool := newMockDB(t, repository.IsolationSerializable)
		mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadUncommitted, AccessMode: pgx.ReadOnly})
		mockPool.ExpectCommit()

		err := db.WithTx(context.Background(), repository.TxOptions{
			Isolation: repository.IsolationReadUncommitted,
			ReadOnly:  true,
		}, func(*repository.Repositories) error { return nil })
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should roll back and return the callback error", func(t *testing.T) {
		db, mockPool := newMockDB(t, repository.IsolationReadCommitted)
		mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
		mockPool.ExpectRollback()

		boom := errors.New("boom")
		err := db.WithTx(context.Background(), repository.TxOptions{}, func(*repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should roll back on panic and re-panic", func(t *testing.T) {
		db, mockPool := newMockDB(t, repository.IsolationDefault)
		mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
		mockPool.ExpectRollback()

		assert.Panics(t, func() {
			_ = db.WithTx(context.Background(), repository.TxOptions{}, func(*repository.Repositories) error {
				panic("kaboom")
			})
		})
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should surface begin failures", func(t *testing.T) {
		db, mockPool := newMockDB(t, repository.IsolationDefault)
		mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable}).WillReturnError(errors.New("no conn"))

		err := db.WithTx(context.Background(), repository.TxOptions{}, func(*repository.Repositories) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.ErrorContains(t, err, "failed to begin transaction")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
