package analyzer

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateAnalyzer is returned when registering a name twice
	ErrDuplicateAnalyzer = errors.New("analyzer already registered")

	// ErrUnknownAnalyzer is returned when resolving a name that was never registered
	ErrUnknownAnalyzer = errors.New("analyzer not registered")
)

// Registry holds analyzers in registration order. Registration order is
// report order, so it must be stable across runs.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
	order     []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		analyzers: make(map[string]Analyzer),
	}
}

// Register adds an analyzer to the end of the registry.
func (r *Registry) Register(a Analyzer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Name()
	if _, exists := r.analyzers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAnalyzer, name)
	}

	r.analyzers[name] = a
	r.order = append(r.order, name)
	return nil
}

// Get returns a registered analyzer by name.
func (r *Registry) Get(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.analyzers[name]
	return a, exists
}

// Names returns all registered analyzer names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// List returns all registered analyzers in registration order.
func (r *Registry) List() []Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Analyzer, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.analyzers[name])
	}
	return list
}

// Len returns the number of registered analyzers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Resolve returns the named analyzers in registration order, regardless of
// the order names were given in. An empty list selects every analyzer.
func (r *Registry) Resolve(names []string) ([]Analyzer, error) {
	if len(names) == 0 {
		return r.List(), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, exists := r.analyzers[name]; !exists {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, name)
		}
		wanted[name] = true
	}

	resolved := make([]Analyzer, 0, len(wanted))
	for _, name := range r.order {
		if wanted[name] {
			resolved = append(resolved, r.analyzers[name])
		}
	}
	return resolved, nil
}
