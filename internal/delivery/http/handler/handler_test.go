package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/user/profile-crawler/internal/adapter/memory"
	"github.com/user/profile-crawler/internal/adapter/sqlite"
	"github.com/user/profile-crawler/internal/delivery/http/response"
	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/repository"
	"github.com/user/profile-crawler/internal/usecase"
	"go.uber.org/zap"
)

type stubCrawler struct {
	result *entity.CrawlResult
	err    error
	// waitForCancel blocks Run until its context is done.
	waitForCancel bool
}

func (c *stubCrawler) Run(ctx context.Context) (*entity.CrawlResult, error) {
	if c.waitForCancel {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.result, c.err
}

func (c *stubCrawler) InProgress(ctx context.Context) bool { return false }

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error {
	return repository.ErrStorageUnavailable
}

func newTestHandler(t *testing.T, crawler usecase.Crawler) (*Handler, *sqlite.RecordStoreImpl) {
	return newTestHandlerWithContext(t, context.Background(), crawler)
}

func newTestHandlerWithContext(t *testing.T, crawlCtx context.Context, crawler usecase.Crawler) (*Handler, *sqlite.RecordStoreImpl) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	profiles := usecase.NewProfileManager(store, memory.NewLock())
	return NewHandler(crawlCtx, crawler, profiles, store, zap.NewNop()), store
}

func TestHandleTriggerCrawl(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h, _ := newTestHandler(t, &stubCrawler{result: &entity.CrawlResult{
		RunID:      "run-1",
		Discovered: 4,
		Skipped:    1,
		Saved:      3,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}})

	rec := httptest.NewRecorder()
	h.HandleTriggerCrawl(rec, httptest.NewRequest(http.MethodPost, "/api/crawl", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp response.CrawlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.NewRecords)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, "run-1", resp.RunID)
	require.EqualValues(t, 1500, resp.DurationMS)
}

func TestHandleTriggerCrawlConflict(t *testing.T) {
	h, _ := newTestHandler(t, &stubCrawler{err: usecase.ErrCrawlInProgress})

	rec := httptest.NewRecorder()
	h.HandleTriggerCrawl(rec, httptest.NewRequest(http.MethodPost, "/api/crawl", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleTriggerCrawlFailure(t *testing.T) {
	h, _ := newTestHandler(t, &stubCrawler{err: errors.New("listing unavailable")})

	rec := httptest.NewRecorder()
	h.HandleTriggerCrawl(rec, httptest.NewRequest(http.MethodPost, "/api/crawl", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "listing unavailable")
}

func TestHandleTriggerCrawlSurvivesClientDisconnect(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h, _ := newTestHandler(t, &stubCrawler{result: &entity.CrawlResult{StartedAt: started, FinishedAt: started}})

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/crawl", nil).WithContext(reqCtx)

	rec := httptest.NewRecorder()
	h.HandleTriggerCrawl(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleTriggerCrawlCancelledOnShutdown(t *testing.T) {
	crawlCtx, shutdown := context.WithCancel(context.Background())
	h, _ := newTestHandlerWithContext(t, crawlCtx, &stubCrawler{waitForCancel: true})

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.HandleTriggerCrawl(rec, httptest.NewRequest(http.MethodPost, "/api/crawl", nil))
		done <- rec.Code
	}()

	shutdown()
	select {
	case code := <-done:
		require.Equal(t, http.StatusServiceUnavailable, code)
	case <-time.After(time.Second):
		t.Fatal("crawl kept running after shutdown")
	}
}

func TestHandleGetStatus(t *testing.T) {
	h, store := newTestHandler(t, &stubCrawler{})
	ctx := context.Background()

	rec := httptest.NewRecorder()
	h.HandleGetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp response.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, NeverRun, resp.LastRun)
	require.Zero(t, resp.TotalRecords)
	require.False(t, resp.CrawlInProgress)

	_, err := store.Save(ctx, &entity.Profile{URL: "https://www.example.com/fr/a", Name: "Anna"})
	require.NoError(t, err)
	lastRun := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetLastRun(ctx, lastRun))

	rec = httptest.NewRecorder()
	h.HandleGetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2026-03-01T10:00:00Z", resp.LastRun)
	require.EqualValues(t, 1, resp.TotalRecords)
}

func TestHandleExport(t *testing.T) {
	h, store := newTestHandler(t, &stubCrawler{})
	ctx := context.Background()
	for _, u := range []string{"https://www.example.com/fr/a", "https://www.example.com/fr/b"} {
		_, err := store.Save(ctx, &entity.Profile{URL: u, Name: "n", ScrapedAt: time.Now()})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "profiles.csv")
	require.Equal(t, "2", rec.Header().Get("X-Record-Count"))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"URL", "Name", "Phone", "About", "Scraped_At"}, rows[0])
	require.Equal(t, "https://www.example.com/fr/a", rows[1][0])
}

func TestHandleHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t, &stubCrawler{})

	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	h.store = failingPinger{}
	rec = httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
