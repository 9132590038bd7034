package testutil

import (
	"context"
	"sync"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	"github.com/cyclebill/cyclebill/internal/email"
)

// SentNotification records one notification dispatch.
type SentNotification struct {
	Kind      string
	UserID    string
	OrderID   string
	InvoiceID string
}

// MockNotifier records notifications for assertions instead of sending them.
type MockNotifier struct {
	mu sync.Mutex

	Sent    []SentNotification
	SendErr error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

var _ email.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) SendDeletedOrderNotification(ctx context.Context, ord *order.Order, usr *user.User, cancellation *subscription.CancellationRequest) error {
	return m.record(SentNotification{Kind: "deleted_order", UserID: usr.ID, OrderID: ord.ID})
}

func (m *MockNotifier) SendUnpaidInvoiceNotification(ctx context.Context, inv *invoice.Invoice, usr *user.User) error {
	n := SentNotification{Kind: "unpaid_invoice", UserID: usr.ID}
	if inv != nil {
		n.InvoiceID = inv.ID
	}
	return m.record(n)
}

func (m *MockNotifier) SendNewInvoiceNotification(ctx context.Context, inv *invoice.Invoice, usr *user.User) error {
	return m.record(SentNotification{Kind: "new_invoice", UserID: usr.ID, InvoiceID: inv.ID})
}

func (m *MockNotifier) record(n SentNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, n)
	return nil
}

// SentOfKind returns the recorded notifications of the given kind.
func (m *MockNotifier) SentOfKind(kind string) []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []SentNotification
	for _, n := range m.Sent {
		if n.Kind == kind {
			result = append(result, n)
		}
	}
	return result
}

func (m *MockNotifier) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
	m.SendErr = nil
}
