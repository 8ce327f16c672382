package datastore

import (
	"context"
	"time"

	"htem/fanc/pkg/policy/engine"
)

// Annotation is one stored annotation row.
type Annotation struct {
	ID      int64     `json:"id"`
	Table   string    `json:"table"`
	Segment uint64    `json:"segment_id"`
	Tag     string    `json:"tag"`
	Tag2    string    `json:"tag2,omitempty"`
	UserID  int64     `json:"user_id"`
	Created time.Time `json:"created"`
}

// Pair returns the annotation as a class/value pair.
func (a Annotation) Pair() engine.Pair {
	return engine.Pair{Class: a.Tag2, Value: a.Tag}
}

// Label renders the annotation as "class: value", or the bare value.
func (a Annotation) Label() string {
	return a.Pair().String()
}

// matches reports whether term names this annotation, either by value
// alone or as "class: value".
func (a Annotation) matches(term string) bool {
	return term == a.Tag || (a.Tag2 != "" && term == a.Label())
}

// Record is an annotation to be posted.
type Record struct {
	Table   string
	Segment uint64
	Pair    engine.Pair
	UserID  int64
}

// Point is a voxel coordinate in the dataset.
type Point [3]int64

// Fetcher reads the annotations attached to a segment. It satisfies
// engine.AnnotationFetcher.
type Fetcher interface {
	FetchAnnotations(ctx context.Context, table string, segment uint64) ([]engine.Pair, error)
}

// Writer posts annotations.
type Writer interface {
	// PostAnnotation stores r and returns the new annotation ID.
	PostAnnotation(ctx context.Context, r Record) (int64, error)

	// GetAnnotation reads one annotation back by ID.
	GetAnnotation(ctx context.Context, table string, id int64) (Annotation, error)
}

// Querier searches annotations.
type Querier interface {
	// FindSegments returns the segments carrying every term, in ascending
	// order. A term matches an annotation's value or its "class: value" label.
	FindSegments(ctx context.Context, table string, terms []string) ([]uint64, error)

	// Annotations returns the full rows attached to a segment, oldest first.
	Annotations(ctx context.Context, table string, segment uint64) ([]Annotation, error)
}

// PointResolver maps a coordinate to the segment containing it.
type PointResolver interface {
	ResolvePoint(ctx context.Context, p Point) (uint64, error)
}

// Store is a complete annotation datastore.
type Store interface {
	Fetcher
	Writer
	Querier
	PointResolver

	// Backend names the implementation, for logs and metrics.
	Backend() string

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// pairs converts rows into pairs.
func pairs(rows []Annotation) []engine.Pair {
	out := make([]engine.Pair, len(rows))
	for i, a := range rows {
		out[i] = a.Pair()
	}
	return out
}
