package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/profile-crawler/internal/app"
	"github.com/user/profile-crawler/internal/delivery/http/handler"
	"github.com/user/profile-crawler/internal/delivery/http/router"
	"github.com/user/profile-crawler/internal/usecase"
	"github.com/user/profile-crawler/pkg/config"
	"github.com/user/profile-crawler/pkg/logger"
	"github.com/user/profile-crawler/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stderr, "info").Fatal("Could not load config", zap.Error(err))
	}

	// --- Logger ---
	log := logger.Init(os.Stdout, cfg.LogLevel)
	defer log.Sync()
	log.Info("Logger initialized", zap.String("level", cfg.LogLevel))

	// --- Metrics ---
	metrics.Init()
	log.Info("Metrics initialized")

	// --- Store, lock and use cases ---
	ctx := context.Background()
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// Cancelled on shutdown; stops crawls started over HTTP.
	crawlCtx, cancelCrawls := context.WithCancel(context.Background())
	defer cancelCrawls()

	// --- Scheduler ---
	var scheduler *usecase.Scheduler
	if cfg.CrawlInterval > 0 || cfg.CrawlOnStart {
		scheduler = usecase.NewScheduler(application.Crawler, cfg.CrawlInterval, cfg.CrawlOnStart, log)
		scheduler.Start()
		log.Info("Scheduler started",
			zap.Duration("interval", cfg.CrawlInterval),
			zap.Bool("on_start", cfg.CrawlOnStart),
		)
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(crawlCtx, application.Crawler, application.Profiles, application.Store, log)
	httpRouter := router.New(apiHandler, log)

	// POST /api/crawl answers only once the crawl is over; an unbounded
	// crawl gets an unbounded write timeout.
	var writeTimeout time.Duration
	if cfg.CrawlTimeout > 0 {
		writeTimeout = cfg.CrawlTimeout + 30*time.Second
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()
	log.Info("Server started", zap.String("port", cfg.ServerPort))

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	cancelCrawls()
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}
