package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Extract returns ctx carrying any W3C trace context found in headers.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the trace context in ctx into outgoing headers.
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
//	tracing.Inject(ctx, req.Header)
func Inject(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// HTTPMiddleware starts a server span per request, continuing any trace
// the caller propagated. The trace ID is echoed in X-Trace-ID.
func HTTPMiddleware(t *Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := Extract(r.Context(), r.Header)
			ctx, span := t.Start(ctx, r.Method+" "+r.URL.Path, ServerSpan())
			defer span.End()

			span.SetAttributes(HTTPAttributes(r)...)
			if id := TraceID(ctx); id != "" {
				w.Header().Set("X-Trace-ID", id)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
