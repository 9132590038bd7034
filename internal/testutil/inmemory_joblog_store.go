package testutil

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/joblog"
)

// InMemoryJobLogStore implements joblog.Repository
type InMemoryJobLogStore struct {
	*InMemoryStore[*joblog.RunLog]
}

func NewInMemoryJobLogStore() *InMemoryJobLogStore {
	return &InMemoryJobLogStore{
		InMemoryStore: NewInMemoryStore[*joblog.RunLog](),
	}
}

func (s *InMemoryJobLogStore) Create(ctx context.Context, log *joblog.RunLog) error {
	return s.InMemoryStore.Create(ctx, log.ID, log)
}

func (s *InMemoryJobLogStore) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, log *joblog.RunLog, _ interface{}) bool {
			return log.StartedAt.Before(before)
		}, nil)
	if err != nil {
		return 0, err
	}

	for _, log := range stale {
		if err := s.InMemoryStore.Delete(ctx, log.ID); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// List returns all run logs, newest first. Test helper.
func (s *InMemoryJobLogStore) List(ctx context.Context) ([]*joblog.RunLog, error) {
	return s.InMemoryStore.List(ctx, nil, nil,
		func(i, j *joblog.RunLog) bool {
			return i.StartedAt.After(j.StartedAt)
		})
}
