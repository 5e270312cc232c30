package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse a held lock", func(t *testing.T) {
		m := NewMemoryLocker()

		token, ok, err := m.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, token)

		_, ok, err = m.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		released, err := m.Release(ctx, "k", token)
		require.NoError(t, err)
		assert.True(t, released)

		_, ok, err = m.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Should take over expired locks", func(t *testing.T) {
		m := NewMemoryLocker()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		first, ok, _ := m.Acquire(ctx, "k", time.Second)
		require.True(t, ok)

		now = now.Add(2 * time.Second)
		second, ok, err := m.Acquire(ctx, "k", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEqual(t, first, second)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("Should keep a taken-over lock when the old holder releases", func(t *testing.T) {
		m := NewMemoryLocker()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		stale, ok, _ := m.Acquire(ctx, "k", time.Second)
		require.True(t, ok)

		now = now.Add(2 * time.Second)
		current, ok, _ := m.Acquire(ctx, "k", time.Minute)
		require.True(t, ok)

		released, err := m.Release(ctx, "k", stale)
		require.NoError(t, err)
		assert.False(t, released)

		_, ok, err = m.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "the current holder still owns the key")

		released, err = m.Release(ctx, "k", current)
		require.NoError(t, err)
		assert.True(t, released)
		assert.Zero(t, m.Len())
	})

	t.Run("Should give up after retries", func(t *testing.T) {
		m := NewMemoryLocker()
		_, _, _ = m.Acquire(ctx, "k", time.Minute)

		token, ok, err := m.AcquireWithRetry(ctx, "k", time.Minute, 2, time.Millisecond)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, token)
	})

	t.Run("Should honour cancellation", func(t *testing.T) {
		m := NewMemoryLocker()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := m.Acquire(cctx, "k", time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Should report releasing an unknown key", func(t *testing.T) {
		released, err := NewMemoryLocker().Release(ctx, "nope", "token")
		require.NoError(t, err)
		assert.False(t, released)
	})
}

func TestWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should serialize critical sections", func(t *testing.T) {
		m := NewMemoryLocker()
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := WithLock(ctx, m, Keys.Registration(), func() error {
					mu.Lock()
					inside++
					if inside > maxSeen {
						maxSeen = inside
					}
					mu.Unlock()

					time.Sleep(2 * time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
		assert.Zero(t, m.Len())
	})

	t.Run("Should release after an error", func(t *testing.T) {
		m := NewMemoryLocker()
		boom := errors.New("boom")

		err := WithLock(ctx, m, "k", func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, m.Len())
	})

	t.Run("Should run unlocked with a nil locker", func(t *testing.T) {
		called := false
		require.NoError(t, WithLock(ctx, nil, "k", func() error {
			called = true
			return nil
		}))
		assert.True(t, called)
	})

	t.Run("Should always succeed with the no-op locker", func(t *testing.T) {
		require.NoError(t, WithLock(ctx, NewNoOpLocker(), "k", func() error { return nil }))
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:catalog:artist:Radiohead", Keys.Artist("Radiohead"))
	assert.Equal(t, "lock:accounts:register", Keys.Registration())
}
