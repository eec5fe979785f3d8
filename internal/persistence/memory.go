package persistence

import (
	"context"
	"sync"

	"github.com/fjod/cart-engine/internal/domain"
)

// MemoryStore is a Store for sessions that run without external storage, and
// for tests. Contents live only as long as the process.
type MemoryStore struct {
	mu   sync.RWMutex
	cart *domain.Cart
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cart == nil {
		return nil, ErrNotFound
	}
	c := m.cart.Clone()
	return &c, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cart.Clone()
	m.cart = &c
	return nil
}
