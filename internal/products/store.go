// Package products serves the demo protected resource the evaluator fronts.
package products

import (
	"context"
	"sort"
	"sync"

	"github.com/warden-rbac/warden/internal/shared"
)

// ElementName is the business element products are guarded by.
const ElementName = "products"

// Product is an owner-tagged resource instance.
type Product struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Owner int64  `json:"owner_id"`
}

// OwnerID implements authz.Owned.
func (p Product) OwnerID() int64 { return p.Owner }

// Store is an in-memory product inventory, seeded explicitly at
// construction. Reads dominate; mutations take the write lock.
type Store struct {
	mu     sync.RWMutex
	items  map[int64]Product
	nextID int64
}

// NewStore constructs a Store holding the given seed products.
func NewStore(seed []Product) *Store {
	store := &Store{items: make(map[int64]Product, len(seed)), nextID: 1}
	for _, product := range seed {
		store.items[product.ID] = product
		if product.ID >= store.nextID {
			store.nextID = product.ID + 1
		}
	}
	return store
}

// List returns all products ordered by ID.
func (s *Store) List(ctx context.Context) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.items))
	for _, product := range s.items {
		out = append(out, product)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get fetches a product by ID.
func (s *Store) Get(ctx context.Context, id int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.items[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return product, nil
}

// Create inserts a product owned by ownerID and returns it.
func (s *Store) Create(ctx context.Context, name string, ownerID int64) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	product := Product{ID: s.nextID, Name: name, Owner: ownerID}
	s.nextID++
	s.items[product.ID] = product
	return product
}

// Update renames a product.
func (s *Store) Update(ctx context.Context, id int64, name string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.items[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	product.Name = name
	s.items[id] = product
	return product, nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
