package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/user/profile-crawler/internal/repository"
)

// LockImpl is an in-process CrawlLock.
type LockImpl struct {
	mu   sync.Mutex
	held atomic.Bool
}

// NewLock creates a new instance of LockImpl.
func NewLock() *LockImpl {
	return &LockImpl{}
}

func (l *LockImpl) TryAcquire(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, repository.ErrLockHeld
	}
	l.held.Store(true)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.held.Store(false)
			l.mu.Unlock()
		})
	}, nil
}

func (l *LockImpl) Held(ctx context.Context) (bool, error) {
	return l.held.Load(), nil
}
