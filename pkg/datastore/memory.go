package datastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"htem/fanc/pkg/policy/engine"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []Annotation
	points map[Point]uint64
	closed bool
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		points: make(map[Point]uint64),
		now:    time.Now,
	}
}

// Backend returns "memory".
func (s *MemoryStore) Backend() string { return "memory" }

// Ping always succeeds on an open store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SetPoint registers the segment containing p.
func (s *MemoryStore) SetPoint(p Point, segment uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[p] = segment
}

// ResolvePoint returns the segment registered for p.
func (s *MemoryStore) ResolvePoint(ctx context.Context, p Point) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seg, ok := s.points[p]; ok {
		return seg, nil
	}
	return 0, fmt.Errorf("point %v: %w", p, ErrNotFound)
}

// FetchAnnotations returns the pairs attached to segment in table.
func (s *MemoryStore) FetchAnnotations(ctx context.Context, table string, segment uint64) ([]engine.Pair, error) {
	rows, err := s.Annotations(ctx, table, segment)
	if err != nil {
		return nil, err
	}
	return pairs(rows), nil
}

// Annotations returns the rows attached to segment in table.
func (s *MemoryStore) Annotations(ctx context.Context, table string, segment uint64) ([]Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []Annotation
	for _, a := range s.rows {
		if a.Table == table && a.Segment == segment {
			out = append(out, a)
		}
	}
	return out, nil
}

// PostAnnotation appends r.
func (s *MemoryStore) PostAnnotation(ctx context.Context, r Record) (int64, error) {
	if err := validateRecord(r); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	id := s.nextID
	s.nextID++
	s.rows = append(s.rows, Annotation{
		ID:      id,
		Table:   r.Table,
		Segment: r.Segment,
		Tag:     r.Pair.Value,
		Tag2:    r.Pair.Class,
		UserID:  r.UserID,
		Created: s.now().UTC(),
	})
	return id, nil
}

// GetAnnotation returns the row with id.
func (s *MemoryStore) GetAnnotation(ctx context.Context, table string, id int64) (Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.rows {
		if a.Table == table && a.ID == id {
			return a, nil
		}
	}
	return Annotation{}, fmt.Errorf("annotation %d in %q: %w", id, table, ErrNotFound)
}

// FindSegments returns segments carrying every term.
func (s *MemoryStore) FindSegments(ctx context.Context, table string, terms []string) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var sets []map[uint64]bool
	for _, term := range terms {
		set := make(map[uint64]bool)
		for _, a := range s.rows {
			if a.Table == table && a.matches(term) {
				set[a.Segment] = true
			}
		}
		sets = append(sets, set)
	}
	return intersect(sets), nil
}

// intersect returns the keys present in every set, sorted.
func intersect(sets []map[uint64]bool) []uint64 {
	if len(sets) == 0 {
		return nil
	}

	var out []uint64
	for seg := range sets[0] {
		inAll := true
		for _, set := range sets[1:] {
			if !set[seg] {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
