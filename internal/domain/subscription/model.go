package subscription

import (
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is one purchased, provisioned product instance tied to a
// customer order (an "order product").
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// OrderID is the parent order this subscription belongs to
	OrderID string `db:"order_id" json:"order_id"`

	// ProductID is the provisioned product
	ProductID string `db:"product_id" json:"product_id"`

	// Price is the full-cycle price of the subscription
	Price decimal.Decimal `db:"price" json:"price"`

	// BillingCycle is the recurrence unit of the subscription
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`

	// SubscriptionStatus is the lifecycle status of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// ExpiresAt is the end of the current paid-for period
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`

	// CancellationRequest is the pending cancellation request, if any
	CancellationRequest *CancellationRequest `db:"-" json:"cancellation_request,omitempty"`

	types.BaseModel
}

// IsExempt reports whether the subscription is immutable to the
// reconciliation pass: zero-price and non-recurring subscriptions are never
// auto-suspended, cancelled for nonpayment, or re-invoiced.
func (s *Subscription) IsExempt() bool {
	return s.Price.IsZero() || !s.BillingCycle.IsRecurring()
}

// CurrentPeriodStart is the start of the billing period ending at ExpiresAt.
func (s *Subscription) CurrentPeriodStart() time.Time {
	return types.PreviousBillingDate(s.ExpiresAt, s.BillingCycle)
}

// CancellationRequest records that the customer asked to cancel a
// subscription. The engine only interprets its presence; the metadata is
// carried through to the notification layer.
type CancellationRequest struct {
	ID             string `db:"id" json:"id"`
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`
	RequestedBy    string `db:"requested_by" json:"requested_by"`
	Reason         string `db:"reason" json:"reason"`

	types.BaseModel
}
