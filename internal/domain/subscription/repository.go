package subscription

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
)

// Repository defines the interface for subscription persistence operations.
// Implementations must reflect committed state at call time; the engine never
// caches subscriptions across passes.
type Repository interface {
	// Get retrieves a subscription by ID with its pending cancellation
	// request, if any
	Get(ctx context.Context, id string) (*Subscription, error)

	// Update persists a mutated subscription
	Update(ctx context.Context, sub *Subscription) error

	// ListExpired returns all subscriptions whose expiry date is strictly
	// before the given time
	ListExpired(ctx context.Context, before time.Time) ([]*Subscription, error)

	// ListExpiring returns all subscriptions whose expiry date is before the
	// given time, excluding the given status
	ListExpiring(ctx context.Context, before time.Time, excludeStatus types.SubscriptionStatus) ([]*Subscription, error)
}
