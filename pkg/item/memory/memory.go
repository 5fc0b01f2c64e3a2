// Package memory implements an in-memory item repository.
package memory

import (
	"context"
	"sync"

	"itemservice/pkg/item"
)

// Repository provides an in-memory implementation of item.Repository.
// A single RWMutex guards the map, the insertion order and the id sequence.
type Repository struct {
	mu    sync.RWMutex
	items map[int64]item.Item
	order []int64
	seq   int64
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{items: make(map[int64]item.Item)}
}

// Save assigns the next id and stores the item.
func (r *Repository) Save(ctx context.Context, it item.Item) (item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	it.ID = r.seq
	r.items[it.ID] = it
	r.order = append(r.order, it.ID)
	return it, nil
}

// FindByID retrieves an item by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (item.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return item.Item{}, item.ErrNotFound
	}
	return it, nil
}

// FindAll returns a copy of every item in save order.
func (r *Repository) FindAll(ctx context.Context) ([]item.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]item.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

// Update replaces the fields of an existing item.
func (r *Repository) Update(ctx context.Context, id int64, values item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return item.ErrNotFound
	}
	it.ItemName = values.ItemName
	it.Price = values.Price
	it.Quantity = values.Quantity
	r.items[id] = it
	return nil
}

// ClearStore drops every item and resets the id sequence.
func (r *Repository) ClearStore(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[int64]item.Item)
	r.order = nil
	r.seq = 0
	return nil
}
