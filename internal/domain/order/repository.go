package order

import "context"

// Repository defines the interface for order persistence operations
type Repository interface {
	// Get retrieves an order by ID
	Get(ctx context.Context, id string) (*Order, error)
}
