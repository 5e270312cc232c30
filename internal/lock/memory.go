package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// holder is the current owner of a key.
type holder struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker implements Locker using in-memory locks.
// The locks are NOT shared across process restarts or multiple instances.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]holder
	now   func() time.Time
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]holder),
		now:   time.Now,
	}
}

// Acquire attempts to acquire a lock. An expired lock is taken over.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, exists := m.locks[key]; exists && now.Before(h.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	m.locks[key] = holder{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (m *MemoryLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, bool, error) {
	for i := 0; i <= maxRetries; i++ {
		token, acquired, err := m.Acquire(ctx, key, ttl)
		if err != nil {
			return "", false, err
		}
		if acquired {
			return token, true, nil
		}

		// Don't sleep on the last attempt.
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return "", false, nil
}

// Release releases a lock if token still owns it.
func (m *MemoryLocker) Release(ctx context.Context, key, token string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, exists := m.locks[key]; exists && h.token == token {
		delete(m.locks, key)
		return true, nil
	}
	return false, nil
}

// Len reports how many keys are currently tracked, expired ones included.
func (m *MemoryLocker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Ensure MemoryLocker implements Locker.
var _ Locker = (*MemoryLocker)(nil)
