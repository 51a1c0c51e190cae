package appointment

import (
	"context"
	"sync"
)

// ProviderLocker serializes the operations that touch one provider's slots.
// fn runs while the lock is held.
type ProviderLocker interface {
	WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context) error) error
}

// LocalLocker is an in-process ProviderLocker with one mutex per provider.
// Entries are dropped once nobody holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*providerLock
}

type providerLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*providerLock)}
}

func (l *LocalLocker) WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pl := l.acquire(providerID)
	defer l.release(providerID, pl)

	return fn(ctx)
}

func (l *LocalLocker) acquire(providerID string) *providerLock {
	l.mu.Lock()
	pl, ok := l.locks[providerID]
	if !ok {
		pl = &providerLock{}
		l.locks[providerID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return pl
}

func (l *LocalLocker) release(providerID string, pl *providerLock) {
	pl.mu.Unlock()

	l.mu.Lock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, providerID)
	}
	l.mu.Unlock()
}
