// Package metrics provides Prometheus metrics for the VFS daemon.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfsd_fs_events_total",
			Help: "Total number of filesystem lifecycle events emitted",
		},
		[]string{"event"},
	)

	fsFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfsd_fs_failures_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"operation"},
	)

	fsEntryCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vfsd_fs_entries",
			Help: "Number of live entries in the namespace",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfsd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vfsd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveEvent counts an emitted lifecycle event.
func ObserveEvent(event string) {
	fsEventsTotal.WithLabelValues(event).Inc()
}

// ObserveFailure counts a failed coordinator operation.
func ObserveFailure(operation string) {
	fsFailuresTotal.WithLabelValues(operation).Inc()
}

// SetEntryCount updates the live entry gauge.
func SetEntryCount(n int) {
	fsEntryCount.Set(float64(n))
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
