package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures a Pruner.
type RetentionConfig struct {
	// Days is how long entries are kept. Zero disables pruning.
	Days int

	// Schedule is a cron expression, e.g. "0 3 * * *" for daily at 3 AM.
	Schedule string
}

// Pruner deletes ledger entries older than the retention period.
type Pruner struct {
	ledger Ledger
	config RetentionConfig
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPruner creates a pruner for ledger.
func NewPruner(ledger Ledger, cfg RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		ledger: ledger,
		config: cfg,
		logger: logger.With("component", "uploads.retention"),
		now:    time.Now,
		cron:   cron.New(),
	}
}

// Prune deletes entries older than the retention period and returns how
// many were removed. It does nothing when Days is zero.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.Days <= 0 {
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.config.Days)
	deleted, err := p.ledger.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune uploads older than %d days: %w", p.config.Days, err)
	}

	if deleted > 0 {
		p.logger.Info("pruned upload ledger", "deleted_count", deleted, "cutoff", cutoff)
	} else {
		p.logger.Debug("no upload entries pruned", "cutoff", cutoff)
	}
	return deleted, nil
}

// Start schedules Prune on the configured cron expression. The schedule
// stops when ctx is cancelled or Stop is called. Start is a no-op when
// retention is disabled.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.Days <= 0 || p.config.Schedule == "" {
		p.logger.Info("upload retention disabled, skipping scheduler")
		return nil
	}
	if _, err := cron.ParseStandard(p.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.config.Schedule, err)
	}

	if _, err := p.cron.AddFunc(p.config.Schedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true
	p.logger.Info("upload retention scheduler started",
		"schedule", p.config.Schedule,
		"retention_days", p.config.Days,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("upload retention scheduler stopped")
}

// IsRunning reports whether the scheduler is running.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled prune, or nil when not scheduled.
func (p *Pruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
