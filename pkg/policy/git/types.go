package git

import "time"

// Commit describes a commit on the vocabulary branch.
type Commit struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	When    time.Time `json:"when"`
	Message string    `json:"message"`
}

// PullResult describes one fast-forward of the local clone.
type PullResult struct {
	FromSHA string
	ToSHA   string

	// ChangedFiles are repository-relative paths that differ between
	// FromSHA and ToSHA.
	ChangedFiles []string
}

// Changed reports whether the clone moved.
func (r *PullResult) Changed() bool {
	return r.FromSHA != r.ToSHA
}

// Stats counts repository operations.
type Stats struct {
	CloneDuration time.Duration
	LastFetch     time.Time
	Fetches       int64
	FailedFetches int64
	Rollbacks     int64
}
