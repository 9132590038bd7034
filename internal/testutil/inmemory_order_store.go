package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/order"
)

// InMemoryOrderStore implements order.Repository
type InMemoryOrderStore struct {
	*InMemoryStore[*order.Order]
}

func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{
		InMemoryStore: NewInMemoryStore[*order.Order](),
	}
}

func (s *InMemoryOrderStore) Create(ctx context.Context, ord *order.Order) error {
	return s.InMemoryStore.Create(ctx, ord.ID, ord)
}

func (s *InMemoryOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	return s.InMemoryStore.Get(ctx, id)
}
