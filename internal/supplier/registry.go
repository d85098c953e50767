package supplier

import (
	"sort"
	"strings"
	"sync"
)

// Factory constructs an adapter instance.
type Factory func() Adapter

// Registry maps supplier codes to adapter factories. Lookups are
// case-insensitive on the code. The registry is an explicit dependency of
// the sync engine rather than a process-wide global, so tests can build
// isolated registries per case.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a supplier code to an adapter factory. A later
// registration for the same code replaces the earlier one.
func (r *Registry) Register(code string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(code)] = factory
}

// Get returns a fresh adapter for the code, if registered.
func (r *Registry) Get(code string) (Adapter, bool) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(code)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Has reports whether an adapter is registered for the code.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.ToLower(code)]
	return ok
}

// All returns the descriptors of every registered adapter, sorted by code.
func (r *Registry) All() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.factories))
	for _, factory := range r.factories {
		infos = append(infos, factory().Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Code < infos[j].Code })
	return infos
}
