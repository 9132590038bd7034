package product

import "context"

// Repository defines the interface for product persistence operations
type Repository interface {
	// Get retrieves a product by ID
	Get(ctx context.Context, id string) (*Product, error)
}
