package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"htem/fanc/pkg/policy/engine"
)

// Config configures a Manager.
type Config struct {
	// Path is a vocabulary file or directory. When empty only the built-in
	// tables are served.
	Path string

	// IncludeDefaults registers the built-in FANC tables alongside those
	// loaded from Path. Loaded tables replace built-ins of the same name.
	IncludeDefaults bool

	// Watch enables hot reload of Path.
	Watch bool

	// DebounceInterval is the quiet period before a hot reload.
	DebounceInterval time.Duration

	// Loader configures file discovery. Nil uses DefaultLoaderConfig.
	Loader *LoaderConfig

	// OnReload is called after every load or reload attempt with the
	// outcome and the number of tables then registered. Optional.
	OnReload func(ok bool, tables int)
}

// Manager owns the table registry and keeps it in sync with the
// vocabulary files.
type Manager struct {
	config   Config
	logger   *slog.Logger
	registry *Registry

	mu      sync.Mutex
	loader  *Loader
	watcher *Watcher
	closed  bool
}

// New creates a manager. Load must be called before tables are available.
func New(config Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Path == "" && !config.IncludeDefaults {
		return nil, errors.New("either a vocabulary path or the built-in tables are required")
	}
	loader, err := NewLoader(config.Loader)
	if err != nil {
		return nil, err
	}
	return &Manager{
		config:   config,
		logger:   logger,
		registry: NewRegistry(),
		loader:   loader,
	}, nil
}

// Registry returns the live registry. It satisfies engine.TableSource.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Load builds the table set and installs it.
func (m *Manager) Load() error {
	tables, err := m.build()
	if err == nil {
		err = m.registry.Replace(tables)
	}
	m.notify(err)
	if err != nil {
		return err
	}
	m.logger.Info("vocabularies loaded",
		"tables", m.registry.Names(),
		"version", m.registry.Version(),
	)
	return nil
}

// Reload rebuilds the table set. On any error the current set stays active.
func (m *Manager) Reload() error {
	previous := m.registry.Version()
	tables, err := m.build()
	if err == nil {
		err = m.registry.Replace(tables)
	}
	m.notify(err)
	if err != nil {
		m.logger.Warn("keeping previous vocabularies", "version", previous, "error", err)
		return err
	}
	m.logger.Info("vocabularies reloaded",
		"previous_version", previous,
		"version", m.registry.Version(),
	)
	return nil
}

func (m *Manager) notify(err error) {
	if m.config.OnReload != nil {
		m.config.OnReload(err == nil, m.registry.Count())
	}
}

func (m *Manager) build() ([]*engine.Table, error) {
	byName := make(map[string]*engine.Table)
	var order []string
	add := func(t *engine.Table) {
		if _, ok := byName[t.Name()]; !ok {
			order = append(order, t.Name())
		}
		byName[t.Name()] = t
	}

	if m.config.IncludeDefaults {
		for _, t := range Defaults() {
			add(t)
		}
	}

	if m.config.Path != "" {
		loaded, err := m.loader.Load(m.config.Path)
		if err != nil {
			return nil, err
		}
		for _, t := range loaded {
			add(t)
		}
	}

	tables := make([]*engine.Table, 0, len(order))
	for _, name := range order {
		tables = append(tables, byName[name])
	}
	return tables, nil
}

// Watch reloads on vocabulary file changes until ctx is cancelled. It
// returns immediately when watching is disabled or there is no path.
func (m *Manager) Watch(ctx context.Context) error {
	if !m.config.Watch || m.config.Path == "" {
		return nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("manager is closed")
	}
	if m.watcher != nil {
		m.mu.Unlock()
		return errors.New("manager is already watching")
	}
	cfg := DefaultWatcherConfig(m.config.Path)
	if m.config.DebounceInterval > 0 {
		cfg.DebounceInterval = m.config.DebounceInterval
	}
	if m.config.Loader != nil && len(m.config.Loader.AllowedExtensions) > 0 {
		cfg.Extensions = m.config.Loader.AllowedExtensions
	}
	w, err := NewWatcher(cfg, m.logger)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to start vocabulary watcher: %w", err)
	}
	m.watcher = w
	m.mu.Unlock()

	return w.Watch(ctx, m.Reload)
}

// Close stops any active watcher.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if m.watcher != nil {
		return m.watcher.Stop()
	}
	return nil
}
