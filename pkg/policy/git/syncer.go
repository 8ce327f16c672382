package git

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SyncerConfig configures a Syncer.
type SyncerConfig struct {
	// Interval between polls. Zero disables Run.
	Interval time.Duration

	// Extensions are the vocabulary file extensions that trigger a reload.
	// Default: .yaml, .yml
	Extensions []string
}

// SyncResult describes one poll.
type SyncResult struct {
	FromSHA  string
	ToSHA    string
	Reloaded bool

	// Skipped is set when the remote head is a commit that already failed
	// to load.
	Skipped bool
}

// Syncer polls a Repository and reloads tables when vocabulary files change.
type Syncer struct {
	repo   *Repository
	reload func() error
	config SyncerConfig
	logger *slog.Logger

	mu       sync.Mutex
	rejected string
}

// NewSyncer creates a syncer that calls reload after the clone moves to a
// commit touching vocabulary files.
func NewSyncer(repo *Repository, reload func() error, cfg SyncerConfig, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".yaml", ".yml"}
	}
	return &Syncer{
		repo:   repo,
		reload: reload,
		config: cfg,
		logger: logger.With("component", "vocabulary.git"),
	}
}

// Sync performs one poll. When reload fails the clone is reset to the
// commit it was on and the remote head is remembered, so later polls skip
// it until the branch moves again.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remote, err := s.repo.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if remote == s.rejected {
		return &SyncResult{ToSHA: remote, Skipped: true}, nil
	}

	pulled, err := s.repo.Advance(remote)
	if err != nil {
		return nil, err
	}
	result := &SyncResult{FromSHA: pulled.FromSHA, ToSHA: pulled.ToSHA}
	if !pulled.Changed() {
		return result, nil
	}

	relevant := 0
	for _, f := range pulled.ChangedFiles {
		if s.repo.Relevant(f, s.config.Extensions) {
			relevant++
		}
	}
	if relevant == 0 {
		s.logger.Debug("no vocabulary changes", "commit", short(pulled.ToSHA))
		return result, nil
	}

	s.logger.Info("vocabulary changes pulled",
		"from", short(pulled.FromSHA),
		"to", short(pulled.ToSHA),
		"files", relevant,
	)
	if err := s.reload(); err != nil {
		s.rejected = pulled.ToSHA
		if rbErr := s.repo.Rollback(pulled.FromSHA); rbErr != nil {
			return result, fmt.Errorf("reload failed: %w (rollback to %s failed: %v)", err, short(pulled.FromSHA), rbErr)
		}
		s.logger.Warn("rolled back vocabulary clone",
			"rejected", short(pulled.ToSHA),
			"commit", short(pulled.FromSHA),
			"error", err,
		)
		return result, fmt.Errorf("reload of %s failed: %w", short(pulled.ToSHA), err)
	}

	s.rejected = ""
	result.Reloaded = true
	return result, nil
}

// Run polls on the configured interval until ctx is cancelled. Poll
// failures are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.logger.Info("vocabulary polling disabled")
		return nil
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("vocabulary polling started", "interval", s.config.Interval.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.logger.Error("vocabulary sync failed", "error", err)
			}
		}
	}
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
