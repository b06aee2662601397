package processor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds one Processor instance.
type Factory func(ctx Context) (Processor, error)

// Registry maps processor identifiers to their factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given identifier.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return errors.New("processor: empty identifier")
	}

	if factory == nil {
		return errors.New("processor: nil factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProcessor, id)
	}

	r.factories[id] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for id, or nil.
func (r *Registry) Lookup(id string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.factories[id]
}

// New builds the processor registered under id.
func (r *Registry) New(id string, ctx Context) (Processor, error) {
	factory := r.Lookup(id)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, id)
	}

	p, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("processor: build %s: %w", id, err)
	}

	return p, nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
