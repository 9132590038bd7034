package testutil

import (
	"context"
	"sync"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu        sync.RWMutex
	lineItems map[string][]*invoice.LineItem // map[invoiceID][]lineItems
	order     []string                       // invoice IDs in creation order

	// Error injection for failure-path tests
	AddLineItemErr error
	UpdateErr      error
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		lineItems:     make(map[string][]*invoice.LineItem),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	copied := *inv
	if inv.CancelledAt != nil {
		t := *inv.CancelledAt
		copied.CancelledAt = &t
	}
	copied.LineItems = nil
	return &copied
}

func copyLineItem(item *invoice.LineItem) *invoice.LineItem {
	if item == nil {
		return nil
	}
	copied := *item
	return &copied
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.CreateQuiet(ctx, inv)
}

func (s *InMemoryInvoiceStore) CreateQuiet(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, inv.ID)
	for _, item := range inv.LineItems {
		s.lineItems[inv.ID] = append(s.lineItems[inv.ID], copyLineItem(item))
	}
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	copied := copyInvoice(inv)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.lineItems[id] {
		copied.LineItems = append(copied.LineItems, copyLineItem(item))
	}
	return copied, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	return s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) AddLineItem(ctx context.Context, item *invoice.LineItem) error {
	if s.AddLineItemErr != nil {
		return s.AddLineItemErr
	}
	if _, err := s.InMemoryStore.Get(ctx, item.InvoiceID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineItems[item.InvoiceID] = append(s.lineItems[item.InvoiceID], copyLineItem(item))
	return nil
}

func (s *InMemoryInvoiceStore) UpdateLineItem(ctx context.Context, item *invoice.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.lineItems[item.InvoiceID] {
		if existing.ID == item.ID {
			s.lineItems[item.InvoiceID][i] = copyLineItem(item)
			return nil
		}
	}
	return ierr.NewError("line item not found").
		WithHint("The requested line item does not exist").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryInvoiceStore) ListOpenBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*invoice.Invoice
	for _, id := range s.order {
		bills := false
		for _, item := range s.lineItems[id] {
			if item.SubscriptionID == subscriptionID {
				bills = true
				break
			}
		}
		if !bills {
			continue
		}

		inv, err := s.InMemoryStore.Get(ctx, id)
		if err != nil {
			continue
		}
		if inv.InvoiceStatus != types.InvoiceStatusPending {
			continue
		}

		copied := copyInvoice(inv)
		for _, item := range s.lineItems[id] {
			copied.LineItems = append(copied.LineItems, copyLineItem(item))
		}
		result = append(result, copied)
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineItems = make(map[string][]*invoice.LineItem)
	s.order = nil
	s.AddLineItemErr = nil
	s.UpdateErr = nil
}

// InvoiceSnapshot captures the store's full state for rollback
type InvoiceSnapshot struct {
	invoices  map[string]*invoice.Invoice
	lineItems map[string][]*invoice.LineItem
	order     []string
}

func (s *InMemoryInvoiceStore) Snapshot() InvoiceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := InvoiceSnapshot{
		invoices:  s.InMemoryStore.Snapshot(),
		lineItems: make(map[string][]*invoice.LineItem, len(s.lineItems)),
		order:     append([]string(nil), s.order...),
	}
	for id, items := range s.lineItems {
		snap.lineItems[id] = append([]*invoice.LineItem(nil), items...)
	}
	return snap
}

func (s *InMemoryInvoiceStore) Restore(snap InvoiceSnapshot) {
	s.InMemoryStore.Restore(snap.invoices)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineItems = snap.lineItems
	s.order = snap.order
}
