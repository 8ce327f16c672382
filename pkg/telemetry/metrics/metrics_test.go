package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"htem/fanc/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Namespace:       "test",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func TestNewCollector(t *testing.T) {
	cfg := &config.MetricsConfig{}
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("collector registry not set")
	}
	if cfg.Namespace != config.DefaultMetricsNS {
		t.Errorf("Namespace = %q, want default", cfg.Namespace)
	}
	if len(cfg.DurationBuckets) == 0 {
		t.Error("DurationBuckets default not applied")
	}
	if !collector.Enabled() {
		t.Error("collector should be enabled when Enabled is unset")
	}
}

func TestCollector_RecordDecision(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	tests := []struct {
		operation string
		table     string
		outcome   string
	}{
		{"authorize", "neuron_information", "allowed"},
		{"authorize", "neuron_information", "MissingParentAnnotation"},
		{"validate", "proofreading_notes", "AnnotationNotRecognized"},
		{"parse", "inline", "allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.operation+"/"+tt.outcome, func(t *testing.T) {
			collector.RecordDecision(tt.operation, tt.table, tt.outcome, time.Millisecond)

			count := testutil.ToFloat64(collector.policyMetrics.decisionsTotal.WithLabelValues(tt.operation, tt.table, tt.outcome))
			if count != 1 {
				t.Errorf("decisions_total = %v, want 1", count)
			}
		})
	}

	if n := testutil.CollectAndCount(collector.policyMetrics.decisionDuration); n != 3 {
		t.Errorf("duration series = %d, want 3 (one per operation)", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	off := false
	cfg := testConfig()
	cfg.Enabled = &off
	collector := NewCollector(cfg, nil)

	collector.RecordDecision("authorize", "t", "allowed", time.Millisecond)
	collector.RecordHTTPRequest("/v1/tables", "GET", 200, time.Millisecond)
	collector.RecordFetch("memory", "ok", time.Millisecond)
	collector.RecordPost("memory", "t", "ok")
	collector.RecordReload(true, 2)

	if n := testutil.CollectAndCount(collector.policyMetrics.decisionsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d decision series", n)
	}
	if n := testutil.CollectAndCount(collector.httpMetrics.requestsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d request series", n)
	}
	if got := testutil.ToFloat64(collector.vocabularyMetrics.tables); got != 0 {
		t.Errorf("disabled collector set tables gauge to %v", got)
	}
}

func TestCollector_TableCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	for i := 0; i < MaxTableLabels+10; i++ {
		collector.RecordDecision("validate", fmt.Sprintf("table_%d", i), "UnknownTable", time.Microsecond)
	}

	other := testutil.ToFloat64(collector.policyMetrics.decisionsTotal.WithLabelValues("validate", OtherLabel, "UnknownTable"))
	if other != 10 {
		t.Errorf("other bucket = %v, want 10", other)
	}
	if got := collector.tables.Count(); got != MaxTableLabels {
		t.Errorf("admitted tables = %d, want %d", got, MaxTableLabels)
	}
}

func TestCollector_DatastoreAndVocabulary(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordFetch("sqlite", "ok", 2*time.Millisecond)
	collector.RecordFetch("sqlite", "error", time.Millisecond)
	collector.RecordPost("cave", "neuron_information", "ok")

	if got := testutil.ToFloat64(collector.datastoreMetrics.fetchesTotal.WithLabelValues("sqlite", "error")); got != 1 {
		t.Errorf("fetch errors = %v", got)
	}
	if got := testutil.ToFloat64(collector.datastoreMetrics.postsTotal.WithLabelValues("cave", "neuron_information", "ok")); got != 1 {
		t.Errorf("posts = %v", got)
	}

	collector.RecordReload(true, 2)
	collector.RecordReload(false, 0)

	if got := testutil.ToFloat64(collector.vocabularyMetrics.tables); got != 2 {
		t.Errorf("tables gauge = %v, want 2 after failed reload", got)
	}
	if got := testutil.ToFloat64(collector.vocabularyMetrics.reloadsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed reloads = %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordDecision("authorize", "neuron_information", "allowed", time.Millisecond)
	collector.RecordHTTPRequest("POST /v1/annotations/authorize", "POST", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`test_policy_decisions_total{operation="authorize",outcome="allowed",table="neuron_information"} 1`,
		`test_http_requests_total{code="200",method="POST",route="POST /v1/annotations/authorize"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("limiter rejected values under the limit")
	}
	if cl.Allow("c") {
		t.Error("limiter admitted a value over the limit")
	}
	if !cl.Allow("a") {
		t.Error("limiter rejected an admitted value")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d", cl.Count())
	}
}

func BenchmarkCollector_RecordDecision(b *testing.B) {
	collector := NewCollector(testConfig(), nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordDecision("authorize", "neuron_information", "allowed", time.Microsecond)
	}
}
