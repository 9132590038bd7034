package service

import (
	"context"
	"fmt"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

// InvoiceService generates renewal invoices for subscriptions entering
// their pre-expiry renewal window.
type InvoiceService interface {
	// EligibleForRenewal reports whether a subscription should receive a
	// renewal invoice in this run. The open-invoice check hits the
	// repository at call time.
	EligibleForRenewal(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (bool, error)

	// GenerateRenewalInvoice creates one pending invoice with a single line
	// item billing the subscription's next period, announces it, and
	// auto-settles it when the total is zero.
	GenerateRenewalInvoice(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (*invoice.Invoice, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

func (s *invoiceService) EligibleForRenewal(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (bool, error) {
	if sub == nil {
		return false, ierr.NewError("subscription is nil").
			Mark(ierr.ErrValidation)
	}

	if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
		return false, nil
	}
	if sub.IsExempt() {
		return false, nil
	}
	if sub.CancellationRequest != nil {
		return false, nil
	}
	if !sub.ExpiresAt.Before(run.RenewalCutoff()) {
		return false, nil
	}

	// At most one open renewal invoice per subscription
	open, err := s.InvoiceRepo.ListOpenBySubscription(ctx, sub.ID)
	if err != nil {
		return false, err
	}
	return len(open) == 0, nil
}

func (s *invoiceService) GenerateRenewalInvoice(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (*invoice.Invoice, error) {
	ord, err := s.OrderRepo.Get(ctx, sub.OrderID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("subscription %s has no parent order %s", sub.ID, sub.OrderID).
			Mark(ierr.ErrNotFound)
	}

	usr, err := s.UserRepo.Get(ctx, ord.UserID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("order %s has no owning user %s", ord.ID, ord.UserID).
			Mark(ierr.ErrNotFound)
	}

	prod, err := s.ProductRepo.Get(ctx, sub.ProductID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("subscription %s references unknown product %s", sub.ID, sub.ProductID).
			Mark(ierr.ErrNotFound)
	}

	periodEnd := types.NextBillingDate(sub.ExpiresAt, sub.BillingCycle)

	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		OrderID:       ord.ID,
		UserID:        usr.ID,
		InvoiceStatus: types.InvoiceStatusPending,
		Total:         sub.Price,
		BaseModel:     types.GetDefaultBaseModel(run.Now),
	}

	item := &invoice.LineItem{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
		InvoiceID:      inv.ID,
		SubscriptionID: sub.ID,
		Description: fmt.Sprintf("%s (%s - %s)",
			prod.Name,
			sub.ExpiresAt.Format("2006-01-02"),
			periodEnd.Format("2006-01-02"),
		),
		Amount:    sub.Price,
		BaseModel: types.GetDefaultBaseModel(run.Now),
	}

	// Header and line item land atomically; batch creation is quiet, events
	// and notifications are emitted explicitly below
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.InvoiceRepo.CreateQuiet(ctx, inv); err != nil {
			return err
		}
		return s.InvoiceRepo.AddLineItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	inv.LineItems = append(inv.LineItems, item)

	event := types.NewWebhookEvent(types.WebhookEventInvoiceCreated, inv, run.Now)
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish invoice created event",
			"invoice_id", inv.ID,
			"error", err,
		)
	}

	if err := s.Notifier.SendNewInvoiceNotification(ctx, inv, usr); err != nil {
		s.Logger.Errorw("failed to send new invoice notification",
			"invoice_id", inv.ID,
			"error", err,
		)
	}

	// Zero-total invoices settle immediately instead of staying open
	if inv.Total.IsZero() {
		if err := s.Provisioner.MarkInvoicePaid(ctx, inv.ID); err != nil {
			s.Logger.Errorw("failed to auto-settle zero-total invoice",
				"invoice_id", inv.ID,
				"error", err,
			)
		}
	}

	s.Logger.Infow("generated renewal invoice",
		"invoice_id", inv.ID,
		"subscription_id", sub.ID,
		"order_id", ord.ID,
		"total", inv.Total.StringFixed(2),
	)
	return inv, nil
}
