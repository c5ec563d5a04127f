package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	CrawlsTotal            *prometheus.CounterVec // outcome: success, failure, rejected
	CrawlDuration          prometheus.Histogram
	CrawlInProgress        prometheus.Gauge
	ProfilesSavedTotal     prometheus.Counter
	CandidatesSkippedTotal prometheus.Counter
	FetchFailuresTotal     *prometheus.CounterVec
	StoredProfiles         prometheus.Gauge

	initOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CrawlsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawls_total",
			Help: "Total number of triggered crawls by outcome.",
		},
		[]string{"outcome"},
	)

	CrawlDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawl_duration_seconds",
			Help:    "Duration of completed crawls.",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600},
		},
	)

	CrawlInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawl_in_progress",
			Help: "1 while a crawl is running.",
		},
	)

	ProfilesSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profiles_saved_total",
			Help: "Profiles newly persisted.",
		},
	)

	CandidatesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "candidates_skipped_total",
			Help: "Discovered candidates skipped because they were already stored.",
		},
	)

	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_failures_total",
			Help: "Detail page fetches that failed and were skipped.",
		},
		[]string{"error_type"},
	)

	StoredProfiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stored_profiles",
			Help: "Total profiles in the record store as of the last status read.",
		},
	)
}
