package ref

import (
	"context"
	"fmt"
	"sync"
)

// LoaderFunc loads the entity identified by id. Implementations should return
// an error wrapping ErrEntityNotFound when the entity does not exist so that
// callers can classify missing entities uniformly across backends.
type LoaderFunc func(ctx context.Context, id string) (any, error)

// Registry maps entity kinds to loader functions. It is the indirection that
// lets Ref stay a plain (kind, id) pair while the application decides how each
// kind is materialized.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]LoaderFunc
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]LoaderFunc),
	}
}

// Register binds a loader to an entity kind, replacing any previous binding.
func (r *Registry) Register(kind string, loader LoaderFunc) {
	if kind == "" || loader == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[kind] = loader
}

// Load materializes the entity behind the reference.
func (r *Registry) Load(ctx context.Context, ref Ref) (any, error) {
	if ref.IsZero() {
		return nil, ErrEmptyRef
	}

	r.mu.RLock()
	loader, ok := r.loaders[ref.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKindNotRegistered, ref.Kind)
	}

	entity, err := loader(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", ref, err)
	}
	return entity, nil
}

// Kinds returns the registered entity kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.loaders))
	for kind := range r.loaders {
		kinds = append(kinds, kind)
	}
	return kinds
}
