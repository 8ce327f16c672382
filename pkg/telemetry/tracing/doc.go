// Package tracing provides OpenTelemetry tracing for fanc.
//
// Spans are exported over OTLP/gRPC. When tracing is disabled New returns a
// Tracer backed by a noop provider, so callers never need to check.
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	eng, _ := engine.New(registry, engine.WithTracer(tracer.Tracer()))
//
// Trace context crosses HTTP boundaries as W3C traceparent headers:
// HTTPMiddleware continues inbound traces and Inject propagates them to the
// remote annotation service.
//
// Sampling is parent-based. New traces are kept with probability
// sample_ratio.
package tracing
