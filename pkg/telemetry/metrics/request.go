package metrics

import (
	"strconv"
	"time"

	"htem/fanc/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks API requests.
//
// Metrics:
//   - fanc_http_requests_total: requests by route, method and status code
//   - fanc_http_request_duration_seconds: request duration by route
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"route", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration)
	return hm
}

// RecordRequest records a completed request. route is the registered
// pattern, not the raw path.
func (hm *HTTPMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	hm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
