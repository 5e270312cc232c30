package lock

import (
	"context"
	"time"
)

// NoOpLocker is a locker that always succeeds.
// Use this when the store already serializes writers.
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Acquire always returns true (lock acquired) with an empty token.
func (n *NoOpLocker) Acquire(ctx context.Context, _ string, _ time.Duration) (string, bool, error) {
	return "", true, ctx.Err()
}

// AcquireWithRetry always returns true (lock acquired).
func (n *NoOpLocker) AcquireWithRetry(ctx context.Context, _ string, _ time.Duration, _ int, _ time.Duration) (string, bool, error) {
	return "", true, ctx.Err()
}

// Release always returns true (lock released).
func (n *NoOpLocker) Release(ctx context.Context, _, _ string) (bool, error) {
	return true, ctx.Err()
}

// Ensure NoOpLocker implements Locker.
var _ Locker = (*NoOpLocker)(nil)
