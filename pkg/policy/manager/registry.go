package manager

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/vocab"
)

// Registry is a thread-safe set of governed tables. Replace swaps the whole
// set at once; readers see either the old set or the new one.
type Registry struct {
	mu       sync.RWMutex
	tables   map[string]*engine.Table
	version  string
	loadTime time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables:   make(map[string]*engine.Table),
		loadTime: time.Now(),
	}
}

// Register adds or replaces a single table.
func (r *Registry) Register(t *engine.Table) error {
	if err := checkTable("register", t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]*engine.Table, len(r.tables)+1)
	for name, existing := range r.tables {
		next[name] = existing
	}
	next[t.Name()] = t
	r.tables = next
	r.updateVersion()
	return nil
}

// Replace atomically replaces the table set.
func (r *Registry) Replace(tables []*engine.Table) error {
	if tables == nil {
		return &RegistryError{Operation: "replace", Message: "tables cannot be nil"}
	}

	next := make(map[string]*engine.Table, len(tables))
	for _, t := range tables {
		if err := checkTable("replace", t); err != nil {
			return err
		}
		if _, dup := next[t.Name()]; dup {
			return &RegistryError{Table: t.Name(), Operation: "replace", Message: "table defined more than once"}
		}
		next[t.Name()] = t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables = next
	r.loadTime = time.Now()
	r.updateVersion()
	return nil
}

// Table returns the named table. It satisfies engine.TableSource.
func (r *Registry) Table(name string) (*engine.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[name]
	return t, ok
}

// Resolve turns a reference into a table, consulting the registry for named
// references.
func (r *Registry) Resolve(ref engine.TableRef) (*engine.Table, error) {
	t, perr := engine.Resolve(r, ref)
	if perr != nil {
		return nil, perr
	}
	return t, nil
}

// Names returns the registered table names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tables sorted by name.
func (r *Registry) All() []*engine.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := make([]*engine.Table, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name() < tables[j].Name() })
	return tables
}

// Count returns the number of registered tables.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tables)
}

// Version identifies the current table set. It changes whenever a table is
// added or the set is replaced with different content.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}

// LoadTime returns when the table set was last replaced.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadTime
}

// Stats summarizes the registry contents.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TableCount: len(r.tables),
		LoadTime:   r.loadTime,
		Version:    r.version,
	}
	for _, t := range r.tables {
		if t.Kind() == engine.KindFlat {
			stats.FlatTables++
			stats.Terms += t.Flat().Len()
			continue
		}
		stats.PairedTables++
		stats.Terms += t.Hierarchy().Len()
	}
	return stats
}

// updateVersion must be called with the write lock held.
func (r *Registry) updateVersion() {
	h := sha256.New()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := r.tables[name]
		h.Write([]byte(name))
		h.Write([]byte(t.Kind().String()))
		if t.Kind() == engine.KindFlat {
			h.Write([]byte(strings.Join(t.Flat().Values(), "\x00")))
		} else {
			_ = vocab.RenderAll(h, t.Hierarchy())
		}
	}

	r.version = fmt.Sprintf("%x", h.Sum(nil))[:16]
}

func checkTable(op string, t *engine.Table) error {
	if t == nil {
		return &RegistryError{Operation: op, Message: "table cannot be nil"}
	}
	if t.Name() == "" {
		return &RegistryError{Operation: op, Message: "table name cannot be empty"}
	}
	return nil
}

// RegistryStats contains statistics about the registry.
type RegistryStats struct {
	TableCount   int
	PairedTables int
	FlatTables   int
	Terms        int
	LoadTime     time.Time
	Version      string
}
