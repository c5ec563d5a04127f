package repository

import "context"

// CrawlLock serializes crawl triggers so only one crawl runs at a time.
type CrawlLock interface {
	// TryAcquire returns a release func, or ErrLockHeld if a crawl is running.
	TryAcquire(ctx context.Context) (release func(), err error)
	// Held reports whether some crawl currently owns the lock.
	Held(ctx context.Context) (bool, error)
}
