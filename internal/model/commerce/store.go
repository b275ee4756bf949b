package commerce

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)

// Store exposes the order and product lookups used for chat context.
type Store interface {
	FindOrder(id string) (Order, bool)
	FindProduct(id string) (Product, bool)
	// UpdateOrderStatus sets a new status and returns the previous one.
	UpdateOrderStatus(id, status string) (string, error)
}

// MemoryStore implements Store over an in-memory catalog.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]Order
	products map[string]Product
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied catalog.
func NewMemoryStore(orders []Order, products []Product) *MemoryStore {
	s := &MemoryStore{
		orders:   make(map[string]Order, len(orders)),
		products: make(map[string]Product, len(products)),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *MemoryStore) FindOrder(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *MemoryStore) FindProduct(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *MemoryStore) UpdateOrderStatus(id, status string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return "", ErrOrderNotFound
	}
	previous := o.Status
	o.Status = strings.TrimSpace(status)
	s.orders[id] = o
	return previous, nil
}
