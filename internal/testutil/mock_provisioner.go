package testutil

import (
	"context"
	"sync"

	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/provisioning"
)

// MockProvisioner records provisioning calls for assertions. Errors can be
// injected per operation.
type MockProvisioner struct {
	mu sync.Mutex

	SuspendedIDs   []string
	TerminatedIDs  []string
	PaidInvoiceIDs []string

	SuspendErr   error
	TerminateErr error
	MarkPaidErr  error
}

func NewMockProvisioner() *MockProvisioner {
	return &MockProvisioner{}
}

var _ provisioning.Provisioner = (*MockProvisioner)(nil)

func (m *MockProvisioner) Suspend(ctx context.Context, sub *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SuspendErr != nil {
		return m.SuspendErr
	}
	m.SuspendedIDs = append(m.SuspendedIDs, sub.ID)
	return nil
}

func (m *MockProvisioner) Terminate(ctx context.Context, sub *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TerminateErr != nil {
		return m.TerminateErr
	}
	m.TerminatedIDs = append(m.TerminatedIDs, sub.ID)
	return nil
}

func (m *MockProvisioner) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkPaidErr != nil {
		return m.MarkPaidErr
	}
	m.PaidInvoiceIDs = append(m.PaidInvoiceIDs, invoiceID)
	return nil
}

func (m *MockProvisioner) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuspendedIDs = nil
	m.TerminatedIDs = nil
	m.PaidInvoiceIDs = nil
	m.SuspendErr = nil
	m.TerminateErr = nil
	m.MarkPaidErr = nil
}
