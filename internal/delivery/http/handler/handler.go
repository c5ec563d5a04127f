package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/user/profile-crawler/internal/delivery/http/response"
	"github.com/user/profile-crawler/internal/usecase"
	"go.uber.org/zap"
)

// NeverRun is reported as last_run before the first completed crawl.
const NeverRun = "never"

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	// crawlCtx outlives single requests and is cancelled on shutdown.
	crawlCtx context.Context
	crawler  usecase.Crawler
	profiles usecase.ProfileManager
	store    Pinger
	logger   *zap.Logger
}

func NewHandler(crawlCtx context.Context, crawler usecase.Crawler, profiles usecase.ProfileManager, store Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		crawlCtx: crawlCtx,
		crawler:  crawler,
		profiles: profiles,
		store:    store,
		logger:   logger,
	}
}

// HandleTriggerCrawl runs a crawl and reports how many profiles it added.
func (h *Handler) HandleTriggerCrawl(w http.ResponseWriter, r *http.Request) {
	// The crawl keeps going if the client disconnects; only shutdown stops it.
	result, err := h.crawler.Run(h.crawlCtx)
	if err != nil {
		if errors.Is(err, usecase.ErrCrawlInProgress) {
			h.writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		if h.crawlCtx.Err() != nil {
			h.logger.Warn("Triggered crawl cancelled by shutdown", zap.Error(err))
			h.writeJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("Triggered crawl failed", zap.Error(err))
		h.writeJSONError(w, "Crawl failed", http.StatusInternalServerError)
		return
	}

	resp := response.CrawlResponse{
		Status:        "success",
		RunID:         result.RunID,
		NewRecords:    result.Saved,
		Discovered:    result.Discovered,
		Skipped:       result.Skipped,
		FetchFailures: result.FetchFailures,
		DurationMS:    result.Duration().Milliseconds(),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.profiles.GetStatus(r.Context())
	if err != nil {
		h.logger.Error("Failed to get crawl status", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.StatusResponse{
		LastRun:         NeverRun,
		TotalRecords:    status.TotalRecords,
		CrawlInProgress: status.CrawlInProgress,
	}
	if status.LastRun != nil {
		resp.LastRun = status.LastRun.UTC().Format(time.RFC3339)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleExport streams the full CSV snapshot as a download.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	// buffered so a storage fault still yields a clean 500
	var buf bytes.Buffer
	rows, err := h.profiles.Export(r.Context(), &buf)
	if err != nil {
		h.logger.Error("Failed to export profiles", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="profiles.csv"`)
	w.Header().Set("X-Record-Count", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write export response", zap.Error(err))
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
