package manager

import (
	"fmt"
	"maps"
	"sort"
	"sync"
)

var datasetAliases = map[string]string{
	"production": "fanc_production_mar2021",
	"sandbox":    "fanc_sandbox",
}

// DatasetAliases returns a copy of the dataset nickname table.
func DatasetAliases() map[string]string {
	return maps.Clone(datasetAliases)
}

// DefaultDataset is used when no dataset is named.
const DefaultDataset = "fanc_production_mar2021"

// ResolveDataset expands a nickname into a full dataset name. Unknown names
// are returned unchanged and an empty name yields DefaultDataset.
func ResolveDataset(name string) string {
	if name == "" {
		return DefaultDataset
	}
	if full, ok := datasetAliases[name]; ok {
		return full
	}
	return name
}

// ClientRegistry holds one datastore client per dataset. The host builds it
// at startup and passes it to whatever needs a client; there is no package
// level cache.
type ClientRegistry[C any] struct {
	mu      sync.RWMutex
	clients map[string]C
	factory func(dataset string) (C, error)
}

// NewClientRegistry creates a registry. factory is called at most once per
// dataset, the first time the dataset is requested.
func NewClientRegistry[C any](factory func(dataset string) (C, error)) *ClientRegistry[C] {
	return &ClientRegistry[C]{
		clients: make(map[string]C),
		factory: factory,
	}
}

// Set registers a client for dataset, replacing any existing one.
func (r *ClientRegistry[C]) Set(dataset string, client C) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[ResolveDataset(dataset)] = client
}

// Get returns the client for dataset, creating it with the factory if needed.
func (r *ClientRegistry[C]) Get(dataset string) (C, error) {
	full := ResolveDataset(dataset)

	r.mu.RLock()
	c, ok := r.clients[full]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[full]; ok {
		return c, nil
	}
	if r.factory == nil {
		var zero C
		return zero, fmt.Errorf("no client registered for dataset %q", full)
	}
	c, err := r.factory(full)
	if err != nil {
		var zero C
		return zero, fmt.Errorf("failed to create client for dataset %q: %w", full, err)
	}
	r.clients[full] = c
	return c, nil
}

// Datasets lists the datasets with a client, sorted.
func (r *ClientRegistry[C]) Datasets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
