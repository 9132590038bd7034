// Package provisioning wraps the hosting backend that owns the actual
// service instances. Calls are fire-and-forget from the engine's
// perspective; failures are surfaced but never roll back state transitions.
package provisioning

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/subscription"
)

// Provisioner is the outbound capability interface to the hosting backend.
type Provisioner interface {
	// Suspend revokes access to a subscription's service without destroying it
	Suspend(ctx context.Context, sub *subscription.Subscription) error

	// Terminate fully deprovisions a subscription's service
	Terminate(ctx context.Context, sub *subscription.Subscription) error

	// MarkInvoicePaid settles an invoice through the payment capability;
	// used for the zero-total auto-pay path
	MarkInvoicePaid(ctx context.Context, invoiceID string) error
}
