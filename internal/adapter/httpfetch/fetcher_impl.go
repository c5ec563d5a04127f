// Package httpfetch loads pages with plain HTTP requests. It suits listing
// sites that render server side and avoids running a browser.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/user/profile-crawler/internal/dom"
	"github.com/user/profile-crawler/internal/proxy"
	"github.com/user/profile-crawler/internal/repository"
	"go.uber.org/zap"
)

// Fetcher implements repository.Browser over resty.
type Fetcher struct {
	timeout time.Duration
	proxies *proxy.Manager
	logger  *zap.Logger
}

func NewFetcher(timeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *Fetcher {
	return &Fetcher{timeout: timeout, proxies: proxies, logger: logger}
}

// NewSession returns a client with its own cookie jar, user agent and proxy.
func (f *Fetcher) NewSession(ctx context.Context) (repository.BrowserSession, error) {
	client := resty.New().
		SetTimeout(f.timeout).
		SetHeader("User-Agent", f.proxies.GetUserAgent()).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", "fr-CH,fr;q=0.9,en;q=0.8")
	if p := f.proxies.GetProxy(); p != "" {
		client.SetProxy(p)
	}
	return &session{client: client, logger: f.logger}, nil
}

type session struct {
	client *resty.Client
	logger *zap.Logger
}

func (s *session) Navigate(ctx context.Context, url string) (*dom.Page, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		var netErr net.Error
		if ctx.Err() == nil && errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %w: %s", repository.ErrFetchFailed, repository.ErrCrawlTimeout, url)
		}
		return nil, fmt.Errorf("%w: %w: %s: %w", repository.ErrFetchFailed, repository.ErrNavigationFailed, url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %w: %s: status %d", repository.ErrFetchFailed, repository.ErrNavigationFailed, url, resp.StatusCode())
	}

	finalURL := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}
	s.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	page, err := dom.New(finalURL, resp.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrFetchFailed, err)
	}
	return page, nil
}

func (s *session) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}
