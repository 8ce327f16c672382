package datastore

import (
	"fmt"

	"htem/fanc/pkg/config"
)

// Open creates the Store selected by cfg for dataset. dataset is the full
// dataset name; only the remote backend addresses it.
func Open(cfg *config.DatastoreConfig, dataset string) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(SQLiteConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	case "cave":
		return NewCAVEClient(CAVEConfig{
			BaseURL: cfg.CAVE.BaseURL,
			Dataset: dataset,
			Token:   cfg.CAVE.Token,
			Timeout: cfg.CAVE.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown datastore backend %q", cfg.Backend)
	}
}
