package repository

import "errors"

var (
	// ErrStorageUnavailable wraps any fault of the backing store. It is fatal
	// for the crawl in progress.
	ErrStorageUnavailable = errors.New("record store unavailable")

	// ErrFetchFailed wraps a failure to load one page. The crawl skips the
	// candidate and continues.
	ErrFetchFailed = errors.New("page fetch failed")
	// ErrNavigationFailed is a fetch failure reported by the browser or server.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrCrawlTimeout is a fetch failure caused by the page load deadline.
	ErrCrawlTimeout = errors.New("page load timed out")

	// ErrLockHeld is returned by CrawlLock.TryAcquire when another crawl owns the lock.
	ErrLockHeld = errors.New("crawl lock held")
)
