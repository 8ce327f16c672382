package uploads

import (
	"context"
	"time"
)

// Entry is one recorded upload.
type Entry struct {
	// ID is a UUID assigned when the entry is recorded.
	ID string `json:"id"`

	AnnotationID int64  `json:"annotation_id"`
	Table        string `json:"table"`
	Segment      uint64 `json:"segment_id"`
	Dataset      string `json:"dataset,omitempty"`

	// Annotation is the posted text, "class: value" for paired tables.
	Annotation string `json:"annotation"`

	// UserID is the datastore user the annotation was posted as.
	UserID int64 `json:"user_id"`

	// ChatUser is the chat user who asked for the post, if any.
	ChatUser string `json:"chat_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Query filters ledger entries. Zero fields match everything.
type Query struct {
	Table   string
	Segment uint64
	UserID  int64

	// Since and Until bound CreatedAt, inclusive and exclusive.
	Since time.Time
	Until time.Time

	// Limit caps the result size. Zero means no limit.
	Limit int
}

func (q Query) matches(e Entry) bool {
	switch {
	case q.Table != "" && e.Table != q.Table:
		return false
	case q.Segment != 0 && e.Segment != q.Segment:
		return false
	case q.UserID != 0 && e.UserID != q.UserID:
		return false
	case !q.Since.IsZero() && e.CreatedAt.Before(q.Since):
		return false
	case !q.Until.IsZero() && !e.CreatedAt.Before(q.Until):
		return false
	}
	return true
}

// Ledger stores upload entries.
type Ledger interface {
	// Record stores e, assigning ID and CreatedAt when unset.
	Record(ctx context.Context, e *Entry) error

	// List returns matching entries, newest first.
	List(ctx context.Context, q Query) ([]Entry, error)

	// Prune deletes entries created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
