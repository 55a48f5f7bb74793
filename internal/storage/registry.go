package storage

import (
	"context"
	"sync"
)

// Registry hands out one store per table, opening each on first request.
// Shop names that map to the same key share a sales table.
type Registry struct {
	backend Backend

	mu     sync.Mutex
	stores map[string]Store
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend, stores: make(map[string]Store)}
}

// SalesStore returns the sales store of shop.
func (r *Registry) SalesStore(ctx context.Context, shop string) (Store, error) {
	return r.open(ctx, SalesSchema(shop))
}

// ExpenseStore returns the shared expense store.
func (r *Registry) ExpenseStore(ctx context.Context) (Store, error) {
	return r.open(ctx, ExpensesSchema())
}

func (r *Registry) open(ctx context.Context, schema Schema) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores[schema.Table]; ok {
		return st, nil
	}
	st, err := r.backend.OpenStore(ctx, schema)
	if err != nil {
		return nil, err
	}
	r.stores[schema.Table] = st
	return st, nil
}

// Close releases the backend.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.stores = make(map[string]Store)
	r.mu.Unlock()
	return r.backend.Close()
}
