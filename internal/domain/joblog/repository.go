package joblog

import (
	"context"
	"time"
)

// Repository defines the interface for run log persistence operations
type Repository interface {
	// Create persists a run log
	Create(ctx context.Context, log *RunLog) error

	// DeleteOlderThan purges run logs started before the given time and
	// returns the number of rows removed
	DeleteOlderThan(ctx context.Context, before time.Time) (int, error)
}
