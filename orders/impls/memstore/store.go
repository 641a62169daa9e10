package memstore

import (
	"context"
	"sync"

	"github.com/zeptools/orderdocs/orders"
)

// Store - in-memory orders.Store. Used by tests and as the staging backend
// before a SQL store is configured.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]orders.Order
	customers map[string]orders.Customer
	items     map[string]orders.LineItem
}

// Ensure memstore.Store implements orders.Store interface
var _ orders.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		orders:    make(map[string]orders.Order),
		customers: make(map[string]orders.Customer),
		items:     make(map[string]orders.LineItem),
	}
}

func (s *Store) PutOrder(o orders.Order) {
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
}

func (s *Store) PutCustomer(c orders.Customer) {
	s.mu.Lock()
	s.customers[c.ID] = c
	s.mu.Unlock()
}

func (s *Store) PutLineItem(it orders.LineItem) {
	s.mu.Lock()
	s.items[it.ID] = it
	s.mu.Unlock()
}

func (s *Store) GetOrder(_ context.Context, id string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &o, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*orders.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetLineItem(_ context.Context, id string) (*orders.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &it, nil
}
