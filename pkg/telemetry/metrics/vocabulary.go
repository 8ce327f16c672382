package metrics

import (
	"htem/fanc/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// VocabularyMetrics tracks the table registry.
//
// Metrics:
//   - fanc_vocabulary_tables: tables currently registered
//   - fanc_vocabulary_reloads_total: reloads by result
type VocabularyMetrics struct {
	tables       prometheus.Gauge
	reloadsTotal *prometheus.CounterVec
}

// NewVocabularyMetrics creates and registers vocabulary metrics with the provided registry.
func NewVocabularyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *VocabularyMetrics {
	vm := &VocabularyMetrics{
		tables: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "vocabulary",
				Name:      "tables",
				Help:      "Number of governed tables currently registered",
			},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "vocabulary",
				Name:      "reloads_total",
				Help:      "Total number of vocabulary reloads",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(vm.tables, vm.reloadsTotal)
	return vm
}

// RecordReload records a reload. A failed reload leaves the table gauge
// unchanged since the previous tables stay in service.
func (vm *VocabularyMetrics) RecordReload(ok bool, tables int) {
	if !ok {
		vm.reloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	vm.reloadsTotal.WithLabelValues("success").Inc()
	vm.tables.Set(float64(tables))
}
