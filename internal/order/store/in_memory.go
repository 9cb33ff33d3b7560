package store

import (
	"context"
	"sync"

	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/order"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

var _ OrderStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{orders: make(map[string]order.Order)}
}

func (s *InMemoryStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.Number]; ok {
		return ErrDuplicateNumber
	}
	stored := *o
	stored.Items = append([]order.Item(nil), o.Items...)
	s.orders[o.Number] = stored
	return nil
}

func (s *InMemoryStore) FindByNumber(_ context.Context, number string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[number]
	if !ok {
		return nil, serrors.ErrOrderNotFound
	}
	o.Items = append([]order.Item(nil), o.Items...)
	return &o, nil
}
