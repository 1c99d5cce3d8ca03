package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// Domain metrics
	LikesToggledTotal         *prometheus.CounterVec
	CommentsTotal             *prometheus.CounterVec
	CollectionOperationsTotal *prometheus.CounterVec
	NotificationsDispatched   *prometheus.CounterVec
	BlobDeleteFailuresTotal   prometheus.Counter
	BackgroundJobsTotal       *prometheus.CounterVec
	RealtimeSubscribers       prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"endpoint", "method"},
			),

			LikesToggledTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "likes_toggled_total",
					Help: "Like toggles by resulting direction",
				},
				[]string{"direction"},
			),
			CommentsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "comments_total",
					Help: "Comment writes by action",
				},
				[]string{"action"},
			),
			CollectionOperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "collection_operations_total",
					Help: "Collection mutations by operation",
				},
				[]string{"operation"},
			),
			NotificationsDispatched: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_dispatched_total",
					Help: "Notification-trigger rows pushed to the feed service",
				},
				[]string{"kind", "status"},
			),
			BlobDeleteFailuresTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "blob_delete_failures_total",
					Help: "Image deletions that failed after the post row was removed",
				},
			),
			BackgroundJobsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "background_jobs_total",
					Help: "Background jobs by name and outcome",
				},
				[]string{"job", "status"},
			),
			RealtimeSubscribers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "realtime_subscribers",
					Help: "Open live post subscriptions",
				},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}
