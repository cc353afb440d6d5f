package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

// AdapterRegistry maps collection names to the [RecordStore] serving them.
// New record types plug in by registration instead of by modifying the
// engine; any store satisfying [RecordStore] can back a collection.
//
// The registry itself implements [RecordStore] by dispatching on the
// collection argument, so the engine can hold a single adapter value.
type AdapterRegistry struct {
	mu     sync.RWMutex
	stores map[string]RecordStore
}

// NewAdapterRegistry constructs an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		stores: make(map[string]RecordStore),
	}
}

// RegisterCollection binds a collection name to its record store. Binding
// the same name twice is a wiring mistake and fails.
func (r *AdapterRegistry) RegisterCollection(collection string, store RecordStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[collection]; exists {
		return ErrCollectionAlreadyRegistered
	}

	r.stores[collection] = store
	return nil
}

// Lookup returns the store registered for the collection, or
// ErrUnknownCollection.
func (r *AdapterRegistry) Lookup(collection string) (RecordStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}

	return store, nil
}

// Collections returns every registered collection name in sorted order.
// Pulls that name no collections default to this full set.
func (r *AdapterRegistry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Get implements [RecordStore] by dispatch.
func (r *AdapterRegistry) Get(ctx context.Context, collection, id string) (models.Record, error) {
	store, err := r.Lookup(collection)
	if err != nil {
		return nil, err
	}

	return store.Get(ctx, collection, id)
}

// Create implements [RecordStore] by dispatch.
func (r *AdapterRegistry) Create(ctx context.Context, collection, id string, data models.Record) (models.Record, error) {
	store, err := r.Lookup(collection)
	if err != nil {
		return nil, err
	}

	return store.Create(ctx, collection, id, data)
}

// Update implements [RecordStore] by dispatch.
func (r *AdapterRegistry) Update(ctx context.Context, collection, id string, data models.Record) (models.Record, error) {
	store, err := r.Lookup(collection)
	if err != nil {
		return nil, err
	}

	return store.Update(ctx, collection, id, data)
}

// Delete implements [RecordStore] by dispatch.
func (r *AdapterRegistry) Delete(ctx context.Context, collection, id string) error {
	store, err := r.Lookup(collection)
	if err != nil {
		return err
	}

	return store.Delete(ctx, collection, id)
}
