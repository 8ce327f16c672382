package uploads

import (
	"fmt"
	"log/slog"

	"htem/fanc/pkg/config"
)

// Open creates the ledger selected by cfg. It returns nil when the ledger
// is disabled.
func Open(cfg *config.UploadsConfig, logger *slog.Logger) (Ledger, error) {
	if !cfg.LedgerEnabled() {
		return nil, nil
	}
	switch cfg.Backend {
	case "memory":
		return NewMemoryLedger(), nil
	case "sqlite":
		return NewSQLiteLedger(SQLiteConfig{Path: cfg.SQLite.Path, BusyTimeout: cfg.SQLite.BusyTimeout}, logger)
	default:
		return nil, fmt.Errorf("unknown uploads backend %q", cfg.Backend)
	}
}
