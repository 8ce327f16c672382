package uploads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []Entry
	closed  bool
	now     func() time.Time
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{now: time.Now}
}

// prepare fills ID and CreatedAt.
func prepare(e *Entry, now func() time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now().UTC()
	}
}

// Record stores e.
func (l *MemoryLedger) Record(ctx context.Context, e *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	prepare(e, l.now)
	l.entries = append(l.entries, *e)
	return nil
}

// List returns matching entries, newest first.
func (l *MemoryLedger) List(ctx context.Context, q Query) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}

	var out []Entry
	for _, e := range l.entries {
		if q.matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Prune deletes entries created before cutoff.
func (l *MemoryLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}

	kept := l.entries[:0]
	var deleted int64
	for _, e := range l.entries {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return deleted, nil
}

// Ping fails once the ledger is closed.
func (l *MemoryLedger) Ping(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the ledger closed.
func (l *MemoryLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
