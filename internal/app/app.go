// Package app assembles the crawler from configuration. Both the API server
// and the CLI build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/profile-crawler/internal/adapter/chromedp_crawler"
	"github.com/user/profile-crawler/internal/adapter/httpfetch"
	"github.com/user/profile-crawler/internal/adapter/memory"
	"github.com/user/profile-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/profile-crawler/internal/adapter/redis"
	"github.com/user/profile-crawler/internal/adapter/sqlite"
	"github.com/user/profile-crawler/internal/proxy"
	"github.com/user/profile-crawler/internal/repository"
	"github.com/user/profile-crawler/internal/usecase"
	"github.com/user/profile-crawler/pkg/config"
	"go.uber.org/zap"
)

// lockSlack keeps a Redis lock alive a little past the crawl deadline.
const lockSlack = time.Minute

type App struct {
	Store    repository.RecordStore
	Lock     repository.CrawlLock
	Crawler  usecase.Crawler
	Profiles usecase.ProfileManager

	redis  *redis.Client
	logger *zap.Logger
}

// New opens the record store and wires the use cases. The caller owns the
// returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{logger: logger}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Record store opened", zap.String("driver", cfg.StoreDriver))
	a.Store = store
	a.Lock = memory.NewLock()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			store.Close()
			return nil, fmt.Errorf("unable to connect to redis: %w", err)
		}
		logger.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))
		a.redis = rdb
		a.Store = redis_adapter.NewVisitedRepo(store, rdb, logger)
		a.Lock = redis_adapter.NewLock(rdb, cfg.CrawlTimeout+lockSlack, logger)
	}

	proxies := proxy.NewManager(cfg.ProxyURLs, nil)
	var browser repository.Browser
	switch cfg.FetchMode {
	case "http":
		browser = httpfetch.NewFetcher(cfg.PageLoadTimeout, proxies, logger)
	default:
		browser = chromedp_crawler.NewChromedpCrawler(cfg.PageLoadTimeout, proxies, logger)
	}

	a.Crawler = usecase.NewCrawlerUseCase(
		a.Store,
		browser,
		a.Lock,
		usecase.NewRandomPacer(cfg.PaceMin, cfg.PaceMax),
		usecase.CrawlerConfig{
			ListingURL: cfg.ListingURL,
			Selectors: usecase.Selectors{
				ProfileLink: cfg.ProfileLinkSelector,
				Name:        cfg.NameSelector,
				Phone:       cfg.PhoneSelector,
				About:       cfg.AboutSelector,
			},
			Timeout: cfg.CrawlTimeout,
		},
		logger,
	)
	a.Profiles = usecase.NewProfileManager(a.Store, a.Lock)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.RecordStore, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return postgres.Open(ctx, cfg.PostgresURL)
	case "sqlite":
		return sqlite.Open(ctx, cfg.DBFile)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close releases the store and the Redis client.
func (a *App) Close() error {
	err := a.Store.Close()
	if a.redis != nil {
		if rerr := a.redis.Close(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}
