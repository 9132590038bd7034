package email

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/user"
)

// Notifier sends the engine's customer-facing notifications. Delivery is
// best-effort; the engine logs failures and moves on.
type Notifier interface {
	// SendDeletedOrderNotification tells the customer their order was
	// cancelled. The cancellation request is nil for forced cancellations.
	SendDeletedOrderNotification(ctx context.Context, ord *order.Order, usr *user.User, cancellation *subscription.CancellationRequest) error

	// SendUnpaidInvoiceNotification tells the customer their service was
	// suspended over an unpaid invoice. The invoice is nil when no open
	// invoice exists.
	SendUnpaidInvoiceNotification(ctx context.Context, inv *invoice.Invoice, usr *user.User) error

	// SendNewInvoiceNotification announces a freshly generated renewal
	// invoice.
	SendNewInvoiceNotification(ctx context.Context, inv *invoice.Invoice, usr *user.User) error
}
