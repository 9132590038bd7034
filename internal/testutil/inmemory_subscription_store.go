package testutil

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	if sub.CancellationRequest != nil {
		req := *sub.CancellationRequest
		copied.CancellationRequest = &req
	}
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) ListExpired(ctx context.Context, before time.Time) ([]*subscription.Subscription, error) {
	return s.list(ctx, func(sub *subscription.Subscription) bool {
		return sub.ExpiresAt.Before(before)
	})
}

func (s *InMemorySubscriptionStore) ListExpiring(ctx context.Context, before time.Time, excludeStatus types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	return s.list(ctx, func(sub *subscription.Subscription) bool {
		return sub.ExpiresAt.Before(before) && sub.SubscriptionStatus != excludeStatus
	})
}

func (s *InMemorySubscriptionStore) list(ctx context.Context, match func(*subscription.Subscription) bool) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
			return sub != nil && match(sub)
		},
		func(i, j *subscription.Subscription) bool {
			return i.ExpiresAt.Before(j.ExpiresAt)
		})
	if err != nil {
		return nil, err
	}

	result := make([]*subscription.Subscription, 0, len(subs))
	for _, sub := range subs {
		result = append(result, copySubscription(sub))
	}
	return result, nil
}
