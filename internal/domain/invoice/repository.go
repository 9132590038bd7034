package invoice

import (
	"context"
)

// Repository defines the interface for invoice persistence operations.
//
// Create and CreateQuiet are distinct on purpose: Create is the evented path
// used by interactive flows and announces the new invoice to downstream
// consumers, while CreateQuiet persists only. Batch renewal generation uses
// CreateQuiet and emits its events explicitly from the service layer.
type Repository interface {
	// Create persists a new invoice and announces it
	Create(ctx context.Context, inv *Invoice) error

	// CreateQuiet persists a new invoice without any side effects
	CreateQuiet(ctx context.Context, inv *Invoice) error

	// Get retrieves an invoice by ID with its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update updates an existing invoice
	Update(ctx context.Context, inv *Invoice) error

	// AddLineItem persists a new line item on an existing invoice
	AddLineItem(ctx context.Context, item *LineItem) error

	// UpdateLineItem overwrites an existing line item
	UpdateLineItem(ctx context.Context, item *LineItem) error

	// ListOpenBySubscription returns the open (pending) invoices that bill
	// the given subscription, oldest first
	ListOpenBySubscription(ctx context.Context, subscriptionID string) ([]*Invoice, error)
}
