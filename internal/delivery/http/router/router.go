package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/profile-crawler/internal/delivery/http/handler"
	"github.com/user/profile-crawler/internal/delivery/http/middleware"
	"github.com/user/profile-crawler/pkg/metrics"
	"go.uber.org/zap"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	metrics.Init()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/crawl", h.HandleTriggerCrawl)
		r.Get("/status", h.HandleGetStatus)
		r.Get("/export", h.HandleExport)
	})

	return r
}
