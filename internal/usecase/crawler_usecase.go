package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/repository"
	"github.com/user/profile-crawler/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrCrawlInProgress = errors.New("a crawl is already in progress")
)

// lastRunStep keeps last_run strictly increasing when the clock has not
// advanced; microseconds survive every store backend.
const lastRunStep = time.Microsecond

// Crawler defines the interface for the crawl-dedup-persist pipeline.
type Crawler interface {
	// Run performs one full crawl and returns its summary. Only one crawl
	// runs at a time; a concurrent call fails with ErrCrawlInProgress.
	Run(ctx context.Context) (*entity.CrawlResult, error)
	// InProgress reports whether a crawl currently holds the lock.
	InProgress(ctx context.Context) bool
}

// CrawlerConfig is the static part of a crawl.
type CrawlerConfig struct {
	ListingURL string
	Selectors  Selectors
	// Timeout bounds a whole crawl; zero means no bound beyond the caller's context.
	Timeout time.Duration
}

type CrawlerOption func(*crawlerUseCase)

// WithClock replaces time.Now for scraped_at and last_run stamps.
func WithClock(now func() time.Time) CrawlerOption {
	return func(uc *crawlerUseCase) { uc.now = now }
}

type crawlerUseCase struct {
	store   repository.RecordStore
	browser repository.Browser
	lock    repository.CrawlLock
	pacer   Pacer
	cfg     CrawlerConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewCrawlerUseCase creates a new instance of the crawler use case.
func NewCrawlerUseCase(
	store repository.RecordStore,
	browser repository.Browser,
	lock repository.CrawlLock,
	pacer Pacer,
	cfg CrawlerConfig,
	logger *zap.Logger,
	opts ...CrawlerOption,
) Crawler {
	metrics.Init()
	uc := &crawlerUseCase{
		store:   store,
		browser: browser,
		lock:    lock,
		pacer:   pacer,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *crawlerUseCase) InProgress(ctx context.Context) bool {
	held, err := uc.lock.Held(ctx)
	if err != nil {
		uc.logger.Warn("failed to read crawl lock", zap.Error(err))
		return false
	}
	return held
}

// Run acquires the crawl lock and drives discovery, dedup, fetch, parse and
// persist. last_run is written only when every candidate has been handled.
func (uc *crawlerUseCase) Run(ctx context.Context) (*entity.CrawlResult, error) {
	release, err := uc.lock.TryAcquire(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			metrics.CrawlsTotal.WithLabelValues("rejected").Inc()
			return nil, ErrCrawlInProgress
		}
		return nil, fmt.Errorf("failed to acquire crawl lock: %w", err)
	}
	defer release()

	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	metrics.CrawlInProgress.Set(1)
	defer metrics.CrawlInProgress.Set(0)

	result := &entity.CrawlResult{
		RunID:     uuid.NewString(),
		StartedAt: uc.now().UTC(),
	}
	log := uc.logger.With(zap.String("run_id", result.RunID))
	log.Info("Crawl started", zap.String("listing_url", uc.cfg.ListingURL))

	if err := uc.crawl(ctx, log, result); err != nil {
		metrics.CrawlsTotal.WithLabelValues("failure").Inc()
		log.Error("Crawl aborted",
			zap.Error(err),
			zap.Int("saved", result.Saved),
			zap.Int("skipped", result.Skipped),
			zap.Int("fetch_failures", result.FetchFailures),
		)
		return nil, err
	}

	lastRun, err := uc.finalize(ctx)
	if err != nil {
		metrics.CrawlsTotal.WithLabelValues("failure").Inc()
		log.Error("Failed to record last run", zap.Error(err), zap.Int("saved", result.Saved))
		return nil, err
	}
	result.FinishedAt = lastRun

	metrics.CrawlsTotal.WithLabelValues("success").Inc()
	metrics.CrawlDuration.Observe(result.Duration().Seconds())
	log.Info("Crawl completed",
		zap.Int("discovered", result.Discovered),
		zap.Int("saved", result.Saved),
		zap.Int("skipped", result.Skipped),
		zap.Int("fetch_failures", result.FetchFailures),
		zap.Duration("duration", result.Duration()),
	)
	return result, nil
}

func (uc *crawlerUseCase) crawl(ctx context.Context, log *zap.Logger, result *entity.CrawlResult) error {
	session, err := uc.browser.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Failed to close browser session", zap.Error(err))
		}
	}()

	listing, err := session.Navigate(ctx, uc.cfg.ListingURL)
	if err != nil {
		return fmt.Errorf("failed to load listing page %s: %w", uc.cfg.ListingURL, err)
	}

	candidates := DiscoverLinks(listing, uc.cfg.Selectors.ProfileLink)
	result.Discovered = len(candidates)
	log.Info("Listing page discovered candidates", zap.Int("candidates", len(candidates)))

	for _, link := range candidates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl interrupted: %w", err)
		}

		exists, err := uc.store.Exists(ctx, link)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", link, err)
		}
		if exists {
			result.Skipped++
			metrics.CandidatesSkippedTotal.Inc()
			log.Debug("Skipping stored profile", zap.String("url", link))
			continue
		}

		profile, err := uc.fetchProfile(ctx, log, session, link)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("crawl interrupted: %w", ctxErr)
			}
			result.FetchFailures++
			metrics.FetchFailuresTotal.WithLabelValues(fetchErrorType(err)).Inc()
			log.Warn("Skipping profile that could not be fetched", zap.String("url", link), zap.Error(err))
			continue
		}

		inserted, err := uc.store.Save(ctx, profile)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", link, err)
		}
		if !inserted {
			// another writer stored it between the check and the save
			result.Skipped++
			metrics.CandidatesSkippedTotal.Inc()
			log.Info("Profile already stored by a concurrent writer", zap.String("url", link))
			continue
		}
		result.Saved++
		metrics.ProfilesSavedTotal.Inc()
		log.Info("Profile saved", zap.String("url", link), zap.String("name", profile.Name))
	}
	return nil
}

// fetchProfile loads one detail page, pauses, then parses it. The pause
// follows every fetch attempt so failures do not speed up the request rate.
func (uc *crawlerUseCase) fetchProfile(ctx context.Context, log *zap.Logger, session repository.BrowserSession, link string) (*entity.Profile, error) {
	page, navErr := session.Navigate(ctx, link)
	if err := uc.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if navErr != nil {
		return nil, navErr
	}

	parsed := ParseProfile(page, link, uc.cfg.Selectors)
	if parsed.NameMissing {
		log.Warn("Profile page has no heading, storing empty name", zap.String("url", link))
	}
	if len(parsed.Missing) > 0 {
		log.Debug("Profile page is missing fields", zap.String("url", link), zap.Strings("fields", parsed.Missing))
	}

	profile := parsed.Profile
	profile.ScrapedAt = uc.now().UTC()
	return &profile, nil
}

// finalize stores the completion time, forced strictly after the previous one.
func (uc *crawlerUseCase) finalize(ctx context.Context) (time.Time, error) {
	prev, err := uc.store.GetLastRun(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last run: %w", err)
	}
	now := uc.now().UTC()
	if prev != nil && !now.After(*prev) {
		now = prev.Add(lastRunStep)
	}
	if err := uc.store.SetLastRun(ctx, now); err != nil {
		return time.Time{}, fmt.Errorf("failed to set last run: %w", err)
	}
	return now, nil
}

func fetchErrorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrCrawlTimeout):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	default:
		return "unknown"
	}
}
