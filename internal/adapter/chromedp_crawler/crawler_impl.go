package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/profile-crawler/internal/dom"
	"github.com/user/profile-crawler/internal/proxy"
	"github.com/user/profile-crawler/internal/repository"
	"go.uber.org/zap"
)

const acceptLanguage = "fr-CH,fr;q=0.9,en;q=0.8"

// ChromedpCrawler opens headless Chrome sessions. Each session is one browser
// process with a single tab that every navigation reuses.
type ChromedpCrawler struct {
	timeout time.Duration
	proxies *proxy.Manager
	logger  *zap.Logger
}

// NewChromedpCrawler creates a browser implementation using chromedp.
func NewChromedpCrawler(pageLoadTimeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *ChromedpCrawler {
	return &ChromedpCrawler{
		timeout: pageLoadTimeout,
		proxies: proxies,
		logger:  logger,
	}
}

// NewSession starts a browser bound to ctx; cancelling ctx kills it.
func (c *ChromedpCrawler) NewSession(ctx context.Context) (repository.BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(c.proxies.GetUserAgent()),
	)
	if p := c.proxies.GetProxy(); p != "" {
		opts = append(opts, chromedp.ProxyServer(p))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(c.logger.Sugar().Debugf))

	// The first Run launches the browser.
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}),
	); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: start browser: %w", repository.ErrFetchFailed, err)
	}

	return &session{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		timeout:     c.timeout,
		logger:      c.logger,
	}, nil
}

type session struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// Navigate loads url in the session tab and snapshots the rendered DOM.
func (s *session) Navigate(ctx context.Context, url string) (*dom.Page, error) {
	// Derived from the tab context so a timeout aborts this load without closing the tab.
	runCtx, cancel := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	startTime := time.Now()
	var html, location string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetchFailed, url, ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %w: %s after %s", repository.ErrFetchFailed, repository.ErrCrawlTimeout, url, s.timeout)
		default:
			return nil, fmt.Errorf("%w: %w: %s: %v", repository.ErrFetchFailed, repository.ErrNavigationFailed, url, err)
		}
	}

	s.logger.Debug("page rendered",
		zap.String("url", url),
		zap.String("location", location),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	if location == "" {
		location = url
	}
	page, err := dom.New(location, html)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrFetchFailed, err)
	}
	return page, nil
}

// Close shuts the browser down gracefully, then releases the allocator.
func (s *session) Close() error {
	err := chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
