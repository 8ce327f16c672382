// Package metrics provides Prometheus metrics collection for fanc.
//
// # Metrics Categories
//
//   - Policy Metrics: decisions by operation, table and outcome, and their duration
//   - HTTP Metrics: API requests by route and status, and their duration
//   - Datastore Metrics: annotation fetches and posts by backend and status
//   - Vocabulary Metrics: loaded tables, reloads and reload failures
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	eng, _ := engine.New(registry, engine.WithRecorder(collector))
//	collector.RecordFetch("sqlite", "ok", 3*time.Millisecond)
//
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Collector satisfies engine.DecisionRecorder, so every parse, validation
// and authorization shows up as
//
//	fanc_policy_decisions_total{operation="authorize",table="neuron_information",outcome="allowed"} 12
//
// # Cardinality Management
//
// Table names come from requests. Once a collector has seen
// MaxTableLabels distinct table names, further names are recorded under
// the label "other".
package metrics
