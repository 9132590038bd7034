package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/product"
)

// InMemoryProductStore implements product.Repository
type InMemoryProductStore struct {
	*InMemoryStore[*product.Product]
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		InMemoryStore: NewInMemoryStore[*product.Product](),
	}
}

func (s *InMemoryProductStore) Create(ctx context.Context, prod *product.Product) error {
	return s.InMemoryStore.Create(ctx, prod.ID, prod)
}

func (s *InMemoryProductStore) Get(ctx context.Context, id string) (*product.Product, error) {
	return s.InMemoryStore.Get(ctx, id)
}
