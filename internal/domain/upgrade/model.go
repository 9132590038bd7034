package upgrade

import (
	"github.com/cyclebill/cyclebill/internal/types"
)

// Upgrade is a pending mid-cycle product change on a subscription. Its
// invoice's first line item holds the prorated charge, recomputed every
// reconciliation pass until the invoice settles. Once the subscription's
// expiry passes the upgrade no longer applies and is pruned.
type Upgrade struct {
	ID string `db:"id" json:"id"`

	// SubscriptionID is the subscription being upgraded
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// ProductID is the target product
	ProductID string `db:"product_id" json:"product_id"`

	// InvoiceID is the invoice carrying the upgrade charge
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	types.BaseModel
}
