package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// AccountLock is a mutual exclusion lock scoped to a single account that supports
// bounded-wait acquisition.
type AccountLock struct {
	id  string
	sem *semaphore.Weighted
}

func newAccountLock(id string) *AccountLock {
	return &AccountLock{
		id:  id,
		sem: semaphore.NewWeighted(1),
	}
}

func (al *AccountLock) AccountID() string {
	return al.id
}

// Acquire waits up to timeout for the lock. A non-positive timeout tries exactly once.
// ErrBusy is returned if the lock could not be taken, including when ctx ends first.
func (al *AccountLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		if al.sem.TryAcquire(1) {
			return nil
		}

		return ErrBusy
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := al.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}

	return nil
}

func (al *AccountLock) TryAcquire() bool {
	return al.sem.TryAcquire(1)
}

func (al *AccountLock) Release() {
	al.sem.Release(1)
}

// LockManager hands out exactly one AccountLock per account number. Locks are created
// lazily and live for the lifetime of the process.
type LockManager struct {
	locks map[string]*AccountLock
	mu    sync.RWMutex
}

func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*AccountLock),
	}
}

// Resolve returns the lock for id, registering a new one if id has never been seen.
// Every caller racing on the same id receives the same instance.
func (lm *LockManager) Resolve(id string) (*AccountLock, error) {
	if id == "" {
		return nil, ErrLockRegistryFault
	}

	lm.mu.RLock()
	if l, ok := lm.locks[id]; ok {
		lm.mu.RUnlock()
		return l, nil
	}

	lm.mu.RUnlock()
	lm.mu.Lock()
	defer lm.mu.Unlock()
	// need to check again here, another goroutine may have registered the lock between
	// releasing the read lock and taking the write lock
	if l, ok := lm.locks[id]; ok {
		return l, nil
	}

	l := newAccountLock(id)
	lm.locks[id] = l
	return l, nil
}

// Lookup returns the lock for id without registering one
func (lm *LockManager) Lookup(id string) (*AccountLock, bool) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	l, ok := lm.locks[id]
	return l, ok
}

func (lm *LockManager) Size() int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	return len(lm.locks)
}
