package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler triggers a crawl on a fixed interval.
type Scheduler struct {
	crawler    Crawler
	interval   time.Duration
	runOnStart bool
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(crawler Crawler, interval time.Duration, runOnStart bool, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		crawler:    crawler,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Start launches the loop. With a non-positive interval only the optional
// start-up crawl runs.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop cancels any crawl it started and waits for the loop to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.runOnStart {
		s.trigger(ctx)
	}
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	result, err := s.crawler.Run(ctx)
	switch {
	case errors.Is(err, ErrCrawlInProgress):
		s.logger.Info("Scheduled crawl skipped, another crawl is running")
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Scheduled crawl failed", zap.Error(err))
	default:
		s.logger.Info("Scheduled crawl finished", zap.Int("new_records", result.Saved))
	}
}
