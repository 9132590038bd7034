package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/upgrade"
)

// InMemoryUpgradeStore implements upgrade.Repository
type InMemoryUpgradeStore struct {
	*InMemoryStore[*upgrade.Upgrade]
}

func NewInMemoryUpgradeStore() *InMemoryUpgradeStore {
	return &InMemoryUpgradeStore{
		InMemoryStore: NewInMemoryStore[*upgrade.Upgrade](),
	}
}

func (s *InMemoryUpgradeStore) Create(ctx context.Context, upg *upgrade.Upgrade) error {
	return s.InMemoryStore.Create(ctx, upg.ID, upg)
}

func (s *InMemoryUpgradeStore) List(ctx context.Context) ([]*upgrade.Upgrade, error) {
	return s.InMemoryStore.List(ctx, nil, nil,
		func(i, j *upgrade.Upgrade) bool {
			return i.CreatedAt.Before(j.CreatedAt)
		})
}

func (s *InMemoryUpgradeStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}
