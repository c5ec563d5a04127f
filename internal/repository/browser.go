package repository

import (
	"context"

	"github.com/user/profile-crawler/internal/dom"
)

// Browser defines the page fetching capability.
type Browser interface {
	// NewSession opens a session; one crawl uses one session for all of its pages.
	NewSession(ctx context.Context) (BrowserSession, error)
}

// BrowserSession loads pages one at a time, reusing cookies and the same tab.
type BrowserSession interface {
	// Navigate loads url and returns the rendered page. Errors wrap ErrFetchFailed.
	Navigate(ctx context.Context, url string) (*dom.Page, error)
	Close() error
}
