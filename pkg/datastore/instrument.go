package datastore

import (
	"context"
	"time"

	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/trace"
)

// Observer receives datastore call outcomes. *metrics.Collector satisfies it.
type Observer interface {
	RecordFetch(backend, status string, duration time.Duration)
	RecordPost(backend, table, status string)
}

// instrumented wraps a Store with metrics and spans on fetch and post.
type instrumented struct {
	Store
	observer Observer
	tracer   trace.Tracer
}

// Instrument wraps s so that fetches and posts are measured and traced.
// Errors pass through unchanged.
func Instrument(s Store, observer Observer, tracer trace.Tracer) Store {
	return &instrumented{Store: s, observer: observer, tracer: tracer}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (i *instrumented) FetchAnnotations(ctx context.Context, table string, segment uint64) ([]engine.Pair, error) {
	ctx, span := i.tracer.Start(ctx, "datastore.FetchAnnotations", tracing.ClientSpan(),
		trace.WithAttributes(tracing.DatastoreAttributes(i.Backend(), table, segment)...))
	defer span.End()

	start := time.Now()
	pairs, err := i.Store.FetchAnnotations(ctx, table, segment)
	i.observer.RecordFetch(i.Backend(), status(err), time.Since(start))
	tracing.SetError(span, err)
	return pairs, err
}

func (i *instrumented) PostAnnotation(ctx context.Context, r Record) (int64, error) {
	ctx, span := i.tracer.Start(ctx, "datastore.PostAnnotation", tracing.ClientSpan(),
		trace.WithAttributes(tracing.DatastoreAttributes(i.Backend(), r.Table, r.Segment)...))
	defer span.End()

	id, err := i.Store.PostAnnotation(ctx, r)
	i.observer.RecordPost(i.Backend(), r.Table, status(err))
	tracing.SetError(span, err)
	return id, err
}
