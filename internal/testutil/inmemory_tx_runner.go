package testutil

import "context"

// InMemoryTxRunner gives service tests the postgres client's all-or-nothing
// semantics over the in-memory stores: when fn fails, the guarded stores are
// restored to their state before the call.
type InMemoryTxRunner struct {
	subscriptions *InMemorySubscriptionStore
	invoices      *InMemoryInvoiceStore
}

func NewInMemoryTxRunner(subscriptions *InMemorySubscriptionStore, invoices *InMemoryInvoiceStore) *InMemoryTxRunner {
	return &InMemoryTxRunner{
		subscriptions: subscriptions,
		invoices:      invoices,
	}
}

func (r *InMemoryTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	subSnap := r.subscriptions.Snapshot()
	invSnap := r.invoices.Snapshot()

	if err := fn(ctx); err != nil {
		r.subscriptions.Restore(subSnap)
		r.invoices.Restore(invSnap)
		return err
	}
	return nil
}
