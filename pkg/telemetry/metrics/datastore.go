package metrics

import (
	"time"

	"htem/fanc/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics tracks calls to the annotation datastore.
//
// Metrics:
//   - fanc_datastore_fetches_total: fetches by backend and status
//   - fanc_datastore_fetch_duration_seconds: fetch duration by backend
//   - fanc_datastore_posts_total: posts by backend, table and status
type DatastoreMetrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	postsTotal    *prometheus.CounterVec
}

// NewDatastoreMetrics creates and registers datastore metrics with the provided registry.
func NewDatastoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DatastoreMetrics {
	dm := &DatastoreMetrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "datastore",
				Name:      "fetches_total",
				Help:      "Total number of annotation fetches",
			},
			[]string{"backend", "status"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "datastore",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of annotation fetches in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"backend"},
		),

		postsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "datastore",
				Name:      "posts_total",
				Help:      "Total number of annotation posts",
			},
			[]string{"backend", "table", "status"},
		),
	}

	registry.MustRegister(dm.fetchesTotal, dm.fetchDuration, dm.postsTotal)
	return dm
}

// RecordFetch records one fetch.
func (dm *DatastoreMetrics) RecordFetch(backend, status string, duration time.Duration) {
	dm.fetchesTotal.WithLabelValues(backend, status).Inc()
	dm.fetchDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordPost records one post.
func (dm *DatastoreMetrics) RecordPost(backend, table, status string) {
	dm.postsTotal.WithLabelValues(backend, table, status).Inc()
}
