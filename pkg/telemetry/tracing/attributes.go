package tracing

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on fanc spans.
const (
	AttrTable      = "fanc.table"
	AttrSegment    = "fanc.segment"
	AttrAnnotation = "fanc.annotation"
	AttrOutcome    = "fanc.outcome"
	AttrDataset    = "fanc.dataset"
	AttrBackend    = "fanc.datastore.backend"
	AttrUser       = "fanc.user"
	AttrRequestID  = "fanc.request_id"
)

// ServerSpan marks a span as handling an inbound request.
func ServerSpan() trace.SpanStartOption {
	return trace.WithSpanKind(trace.SpanKindServer)
}

// ClientSpan marks a span as an outbound call.
func ClientSpan() trace.SpanStartOption {
	return trace.WithSpanKind(trace.SpanKindClient)
}

// HTTPAttributes describes an inbound request.
func HTTPAttributes(r *http.Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("http.method", r.Method),
		attribute.String("http.target", r.URL.Path),
	}
}

// DatastoreAttributes describes a datastore call.
func DatastoreAttributes(backend, table string, segment uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrBackend, backend),
		attribute.String(AttrTable, table),
		attribute.String(AttrSegment, strconv.FormatUint(segment, 10)),
	}
}

// SetStatusCode records the response status on span.
func SetStatusCode(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.status_code", status))
}
