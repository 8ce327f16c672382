package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userKey      contextKey = "user"
	tableKey     contextKey = "table"
	segmentKey   contextKey = "segment"
	datasetKey   contextKey = "dataset"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUser adds the requesting user (a chat user ID or datastore user) to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the user from the context.
func GetUser(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// WithTable adds the annotation table name to the context.
func WithTable(ctx context.Context, table string) context.Context {
	return context.WithValue(ctx, tableKey, table)
}

// GetTable retrieves the annotation table name from the context.
func GetTable(ctx context.Context) string {
	table, _ := ctx.Value(tableKey).(string)
	return table
}

// WithSegment adds the segment ID being annotated to the context.
func WithSegment(ctx context.Context, segment uint64) context.Context {
	return context.WithValue(ctx, segmentKey, segment)
}

// GetSegment retrieves the segment ID from the context.
func GetSegment(ctx context.Context) (uint64, bool) {
	seg, ok := ctx.Value(segmentKey).(uint64)
	return seg, ok
}

// WithDataset adds the dataset name to the context.
func WithDataset(ctx context.Context, dataset string) context.Context {
	return context.WithValue(ctx, datasetKey, dataset)
}

// GetDataset retrieves the dataset name from the context.
func GetDataset(ctx context.Context) string {
	ds, _ := ctx.Value(datasetKey).(string)
	return ds
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if user := GetUser(ctx); user != "" {
		attrs = append(attrs, slog.String("user", user))
	}
	if ds := GetDataset(ctx); ds != "" {
		attrs = append(attrs, slog.String("dataset", ds))
	}
	if table := GetTable(ctx); table != "" {
		attrs = append(attrs, slog.String("table", table))
	}
	if seg, ok := GetSegment(ctx); ok {
		attrs = append(attrs, slog.Uint64("segment", seg))
	}
	return attrs
}
