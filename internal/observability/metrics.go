// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page cache outcomes.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PageCacheRequests counts rendered-page cache lookups by page and outcome.
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_requests_total",
		Help: "Rendered page cache lookups by page and outcome",
	}, []string{"page", "result"})

	// PageRenderLatency records template render time by page.
	PageRenderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_page_render_latency_seconds",
		Help:    "Template render latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"page"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ContentCreated counts successfully created posts and comments.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_content_created_total",
		Help: "Total number of posts and comments created",
	}, []string{"kind"})
)

// RecordPageCache increments the page cache counter for the given outcome.
func RecordPageCache(page, result string) {
	PageCacheRequests.WithLabelValues(page, result).Inc()
}

// TrackRender returns a function that records render latency when called (e.g. defer).
func TrackRender(page string) func() {
	start := time.Now()
	return func() {
		PageRenderLatency.WithLabelValues(page).Observe(time.Since(start).Seconds())
	}
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
