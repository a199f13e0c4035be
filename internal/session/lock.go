package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sheetsort/domain/core"

	"golang.org/x/sync/semaphore"
)

// Locker serialises mutating operations per workbook
type Locker struct {
	mu      sync.Mutex
	locks   map[core.ID]*semaphore.Weighted
	timeout time.Duration
}

// NewLocker creates an empty locker. A positive timeout bounds how long Lock
// waits for a busy workbook; zero waits as long as the caller's context.
func NewLocker(timeout time.Duration) *Locker {
	return &Locker{locks: make(map[core.ID]*semaphore.Weighted), timeout: timeout}
}

func (l *Locker) get(id core.ID) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[id] = sem
	}
	return sem
}

// Lock blocks until the workbook is free, the timeout passes or ctx is done.
// The returned function releases the lock.
func (l *Locker) Lock(ctx context.Context, id core.ID) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	sem := l.get(id)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrLockUnavailable, id, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, nil
}

// Forget drops the lock of a deleted workbook. A lock that is still held
// is kept.
func (l *Locker) Forget(id core.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[id]
	if !ok || !sem.TryAcquire(1) {
		return
	}
	delete(l.locks, id)
	sem.Release(1)
}

// Len returns the number of tracked workbooks
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
