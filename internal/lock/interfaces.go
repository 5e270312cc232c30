// Package lock provides in-process locks around units of work whose
// read-then-write would otherwise race between concurrent requests.
package lock

import (
	"context"
	"errors"
	"time"
)

// Default timings used by WithLock.
const (
	DefaultTTL        = 10 * time.Second
	DefaultRetries    = 50
	DefaultRetryDelay = 20 * time.Millisecond
)

// ErrNotAcquired is returned by WithLock when the lock stayed busy.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker defines the interface for locking.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// On success it returns the token identifying this holder; ok is false
	// if the lock is held by someone else.
	// The lock expires after ttl even if it is never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)

	// AcquireWithRetry attempts to acquire a lock with retries.
	// Will retry up to maxRetries times with retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (token string, ok bool, err error)

	// Release releases a lock held under token.
	// Returns false if the lock is not held or belongs to another token,
	// as when it expired and was taken over.
	Release(ctx context.Context, key, token string) (bool, error)
}

// WithLock runs fn while holding key. A nil locker runs fn unlocked.
func WithLock(ctx context.Context, locker Locker, key string, fn func() error) error {
	if locker == nil {
		return fn()
	}

	token, acquired, err := locker.AcquireWithRetry(ctx, key, DefaultTTL, DefaultRetries, DefaultRetryDelay)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrNotAcquired
	}
	defer func() {
		_, _ = locker.Release(context.WithoutCancel(ctx), key, token)
	}()

	return fn()
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Registration guards the "first user is privileged" decision.
func (lockKeys) Registration() string {
	return "lock:accounts:register"
}

// Artist guards the find-or-create of an artist by exact name.
func (lockKeys) Artist(name string) string {
	return "lock:catalog:artist:" + name
}
