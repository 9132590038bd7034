package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/user"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, usr *user.User) error {
	return s.InMemoryStore.Create(ctx, usr.ID, usr)
}

func (s *InMemoryUserStore) Get(ctx context.Context, id string) (*user.User, error) {
	return s.InMemoryStore.Get(ctx, id)
}
