package service

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

// Transition is the outcome of one state machine evaluation.
type Transition string

const (
	TransitionNone      Transition = "none"
	TransitionSuspended Transition = "suspended"
	TransitionCancelled Transition = "cancelled"
)

// SubscriptionLifecycleService advances a single expired subscription
// through the billing state machine. Transitions only move forward
// (pending/active -> suspended -> cancelled); re-running on an unchanged
// subscription produces no further side effects.
type SubscriptionLifecycleService interface {
	// ProcessExpiredSubscription decides and applies the next transition for
	// a subscription whose expiry date is strictly in the past.
	ProcessExpiredSubscription(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (Transition, error)
}

type subscriptionLifecycleService struct {
	ServiceParams
}

func NewSubscriptionLifecycleService(params ServiceParams) SubscriptionLifecycleService {
	return &subscriptionLifecycleService{
		ServiceParams: params,
	}
}

func (s *subscriptionLifecycleService) ProcessExpiredSubscription(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (Transition, error) {
	if sub == nil {
		return TransitionNone, ierr.NewError("subscription is nil").
			Mark(ierr.ErrValidation)
	}

	// Exempt subscriptions never auto-transition
	if sub.IsExempt() {
		return TransitionNone, nil
	}

	// cancelled is absorbing
	if sub.SubscriptionStatus.IsTerminal() {
		return TransitionNone, nil
	}

	if !sub.ExpiresAt.Before(run.Now) {
		return TransitionNone, nil
	}

	switch sub.SubscriptionStatus {
	case types.SubscriptionStatusActive:
		if sub.CancellationRequest != nil {
			return s.cancelOnRequest(ctx, run, sub)
		}
		return s.suspend(ctx, run, sub)
	case types.SubscriptionStatusSuspended, types.SubscriptionStatusPending:
		if sub.ExpiresAt.Before(run.GraceCutoff()) {
			return s.forceCancel(ctx, run, sub)
		}
		// Still within the grace period; re-evaluate next pass
		return TransitionNone, nil
	default:
		return TransitionNone, ierr.NewError("unexpected subscription status").
			WithHintf("subscription %s has status %s", sub.ID, sub.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}
}

// cancelOnRequest honors a customer's cancellation request on an expired
// active subscription: terminate the service and notify with the request's
// context.
func (s *subscriptionLifecycleService) cancelOnRequest(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (Transition, error) {
	ord, usr, err := s.loadOwner(ctx, sub)
	if err != nil {
		return TransitionNone, err
	}

	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	sub.UpdatedAt = run.Now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return TransitionNone, err
	}

	// Side effects are best-effort once the transition is persisted
	if err := s.Provisioner.Terminate(ctx, sub); err != nil {
		s.Logger.Errorw("failed to terminate service for cancelled subscription",
			"subscription_id", sub.ID,
			"error", err,
		)
	}

	if err := s.Notifier.SendDeletedOrderNotification(ctx, ord, usr, sub.CancellationRequest); err != nil {
		s.Logger.Errorw("failed to send deleted order notification",
			"subscription_id", sub.ID,
			"order_id", ord.ID,
			"error", err,
		)
	}

	s.publishTransition(ctx, run, types.WebhookEventSubscriptionCancelled, sub)

	s.Logger.Infow("cancelled subscription on customer request",
		"subscription_id", sub.ID,
		"order_id", sub.OrderID,
	)
	return TransitionCancelled, nil
}

// suspend handles nonpayment on an expired active subscription: revoke
// access and point the customer at their oldest open invoice.
func (s *subscriptionLifecycleService) suspend(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (Transition, error) {
	_, usr, err := s.loadOwner(ctx, sub)
	if err != nil {
		return TransitionNone, err
	}

	sub.SubscriptionStatus = types.SubscriptionStatusSuspended
	sub.UpdatedAt = run.Now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return TransitionNone, err
	}

	if err := s.Provisioner.Suspend(ctx, sub); err != nil {
		s.Logger.Errorw("failed to suspend service",
			"subscription_id", sub.ID,
			"error", err,
		)
	}

	// Re-read open invoices at decision time; a payment webhook may have
	// settled one mid-pass
	unpaid, err := s.oldestOpenInvoice(ctx, sub.ID)
	if err != nil {
		s.Logger.Errorw("failed to look up open invoices for suspension notice",
			"subscription_id", sub.ID,
			"error", err,
		)
	}
	if err := s.Notifier.SendUnpaidInvoiceNotification(ctx, unpaid, usr); err != nil {
		s.Logger.Errorw("failed to send unpaid invoice notification",
			"subscription_id", sub.ID,
			"error", err,
		)
	}

	s.publishTransition(ctx, run, types.WebhookEventSubscriptionSuspended, sub)

	s.Logger.Infow("suspended subscription past expiry",
		"subscription_id", sub.ID,
		"order_id", sub.OrderID,
	)
	return TransitionSuspended, nil
}

// forceCancel ends a suspended or pending subscription whose expiry has
// aged past the grace period. Any open unpaid invoice is cancelled with it.
func (s *subscriptionLifecycleService) forceCancel(ctx context.Context, run types.RunContext, sub *subscription.Subscription) (Transition, error) {
	ord, usr, err := s.loadOwner(ctx, sub)
	if err != nil {
		return TransitionNone, err
	}

	// The cancellation and the invoice write-off are one state change; a
	// failure on either leaves the subscription where it was for the next pass
	prior := sub.SubscriptionStatus
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	sub.UpdatedAt = run.Now
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return err
		}
		return s.cancelOpenInvoice(ctx, run, sub.ID)
	})
	if err != nil {
		sub.SubscriptionStatus = prior
		return TransitionNone, err
	}

	if err := s.Provisioner.Terminate(ctx, sub); err != nil {
		s.Logger.Errorw("failed to terminate service for force-cancelled subscription",
			"subscription_id", sub.ID,
			"error", err,
		)
	}

	// Forced cancellation carries no customer cancellation context
	if err := s.Notifier.SendDeletedOrderNotification(ctx, ord, usr, nil); err != nil {
		s.Logger.Errorw("failed to send deleted order notification",
			"subscription_id", sub.ID,
			"order_id", ord.ID,
			"error", err,
		)
	}

	s.publishTransition(ctx, run, types.WebhookEventSubscriptionCancelled, sub)

	s.Logger.Infow("force-cancelled subscription past grace period",
		"subscription_id", sub.ID,
		"order_id", sub.OrderID,
		"grace_days", run.GraceDays,
	)
	return TransitionCancelled, nil
}

// loadOwner resolves the parent order and its user. A missing record is a
// data error that aborts processing of this subscription only.
func (s *subscriptionLifecycleService) loadOwner(ctx context.Context, sub *subscription.Subscription) (*order.Order, *user.User, error) {
	ord, err := s.OrderRepo.Get(ctx, sub.OrderID)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHintf("subscription %s has no parent order %s", sub.ID, sub.OrderID).
			Mark(ierr.ErrNotFound)
	}

	usr, err := s.UserRepo.Get(ctx, ord.UserID)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHintf("order %s has no owning user %s", ord.ID, ord.UserID).
			Mark(ierr.ErrNotFound)
	}

	return ord, usr, nil
}

func (s *subscriptionLifecycleService) oldestOpenInvoice(ctx context.Context, subscriptionID string) (*invoice.Invoice, error) {
	open, err := s.InvoiceRepo.ListOpenBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}
	return open[0], nil
}

func (s *subscriptionLifecycleService) cancelOpenInvoice(ctx context.Context, run types.RunContext, subscriptionID string) error {
	open, err := s.oldestOpenInvoice(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if open == nil || open.InvoiceStatus == types.InvoiceStatusPaid {
		return nil
	}

	cancelledAt := run.Now
	open.InvoiceStatus = types.InvoiceStatusCancelled
	open.CancelledAt = &cancelledAt
	open.UpdatedAt = run.Now
	if err := s.InvoiceRepo.Update(ctx, open); err != nil {
		return err
	}

	s.Logger.Infow("cancelled open invoice for force-cancelled subscription",
		"invoice_id", open.ID,
		"subscription_id", subscriptionID,
	)
	return nil
}

func (s *subscriptionLifecycleService) publishTransition(ctx context.Context, run types.RunContext, eventName string, sub *subscription.Subscription) {
	event := types.NewWebhookEvent(eventName, sub, run.Now)
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish subscription transition event",
			"event_name", eventName,
			"subscription_id", sub.ID,
			"error", err,
		)
	}
}
