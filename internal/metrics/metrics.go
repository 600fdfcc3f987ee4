// Package metrics holds Prometheus instruments used across MovieNest.  All
// collectors are registered with the global registry, so mounting
// promhttp.Handler() in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// APIRequestsTotal counts upstream calls by logical endpoint and HTTP
	// status ("error" when the transport failed before a status arrived).
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movienest_api_requests_total",
			Help: "Upstream movie API requests by endpoint and status.",
		}, []string{"endpoint", "status"})

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movienest_api_request_duration_seconds",
			Help:    "Upstream movie API latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"})

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movienest_logins_total",
			Help: "Login attempts by result (success, rejected, invalid).",
		}, []string{"result"})

	NoopEditsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "movienest_noop_edits_total",
			Help: "Edit submissions short-circuited because nothing changed.",
		})

	LoginThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "movienest_login_throttled_total",
			Help: "Login posts rejected by the per-client rate limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal,
		APIRequestDuration,
		LoginsTotal,
		NoopEditsTotal,
		LoginThrottledTotal,
	)
}
