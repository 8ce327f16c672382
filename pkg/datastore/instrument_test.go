package datastore

import (
	"context"
	"errors"
	"testing"
	"time"

	"htem/fanc/pkg/policy/engine"

	"go.opentelemetry.io/otel/trace/noop"
)

type observation struct {
	kind, backend, table, status string
}

type fakeObserver struct {
	seen []observation
}

func (o *fakeObserver) RecordFetch(backend, status string, _ time.Duration) {
	o.seen = append(o.seen, observation{"fetch", backend, "", status})
}

func (o *fakeObserver) RecordPost(backend, table, status string) {
	o.seen = append(o.seen, observation{"post", backend, table, status})
}

func TestInstrument(t *testing.T) {
	obs := &fakeObserver{}
	inner := NewMemoryStore()
	s := Instrument(inner, obs, noop.NewTracerProvider().Tracer("test"))
	ctx := context.Background()

	if _, err := s.PostAnnotation(ctx, Record{Table: "proofreading_notes", Segment: 9, Pair: engine.Pair{Value: "orphan"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PostAnnotation(ctx, Record{Table: "proofreading_notes"}); err == nil {
		t.Fatal("expected validation error")
	}
	got, err := s.FetchAnnotations(ctx, "proofreading_notes", 9)
	if err != nil || len(got) != 1 {
		t.Fatalf("FetchAnnotations() = (%v, %v)", got, err)
	}

	_ = inner.Close()
	if _, err := s.FetchAnnotations(ctx, "proofreading_notes", 9); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed unchanged", err)
	}

	want := []observation{
		{"post", "memory", "proofreading_notes", "ok"},
		{"post", "memory", "proofreading_notes", "error"},
		{"fetch", "memory", "", "ok"},
		{"fetch", "memory", "", "error"},
	}
	if len(obs.seen) != len(want) {
		t.Fatalf("observations = %v", obs.seen)
	}
	for i := range want {
		if obs.seen[i] != want[i] {
			t.Errorf("observation[%d] = %v, want %v", i, obs.seen[i], want[i])
		}
	}
}
