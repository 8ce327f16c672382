package metrics

import (
	"sync"
	"time"

	"htem/fanc/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// MaxTableLabels bounds the number of distinct table label values.
const MaxTableLabels = 256

// OtherLabel replaces label values beyond the cardinality limit.
const OtherLabel = "other"

// Collector owns every fanc metric and the registry they are registered on.
// A Collector built from a disabled config records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	enabled  bool

	policyMetrics     *PolicyMetrics
	httpMetrics       *HTTPMetrics
	datastoreMetrics  *DatastoreMetrics
	vocabularyMetrics *VocabularyMetrics

	tables *CardinalityLimiter
}

// NewCollector creates a collector with the given configuration. If registry
// is nil a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(&config.MetricsConfig{Namespace: "fanc"}, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNS
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		enabled:  cfg.MetricsEnabled(),
		tables:   NewCardinalityLimiter(MaxTableLabels),
	}

	c.policyMetrics = NewPolicyMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)
	c.datastoreMetrics = NewDatastoreMetrics(cfg, registry)
	c.vocabularyMetrics = NewVocabularyMetrics(cfg, registry)

	return c
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.enabled
}

// RecordDecision records one engine decision. It implements
// engine.DecisionRecorder.
func (c *Collector) RecordDecision(operation, table, outcome string, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.policyMetrics.RecordDecision(operation, c.tableLabel(table), outcome, duration)
}

// RecordHTTPRequest records a completed API request.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, status, duration)
}

// RecordFetch records one annotation fetch against a datastore backend.
// status is "ok" or "error".
func (c *Collector) RecordFetch(backend, status string, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.datastoreMetrics.RecordFetch(backend, status, duration)
}

// RecordPost records one annotation post.
func (c *Collector) RecordPost(backend, table, status string) {
	if !c.enabled {
		return
	}
	c.datastoreMetrics.RecordPost(backend, c.tableLabel(table), status)
}

// RecordReload records a vocabulary reload and the resulting table count.
func (c *Collector) RecordReload(ok bool, tables int) {
	if !c.enabled {
		return
	}
	c.vocabularyMetrics.RecordReload(ok, tables)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) tableLabel(table string) string {
	if c.tables.Allow(table) {
		return table
	}
	return OtherLabel
}

// CardinalityLimiter bounds the number of distinct values admitted for a
// label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting up to maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is admitted, admitting it if there is room.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
