package invoice

import (
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model
type Invoice struct {
	ID string `db:"id" json:"id"`

	// OrderID is the order this invoice bills
	OrderID string `db:"order_id" json:"order_id"`

	// UserID is the owner of the order
	UserID string `db:"user_id" json:"user_id"`

	// InvoiceStatus is the payment status; pending means open
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`

	// CancelledAt is set when the invoice is force-cancelled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	// Total is derived from the line items
	Total decimal.Decimal `db:"total" json:"total"`

	LineItems []*LineItem `db:"-" json:"line_items,omitempty"`

	types.BaseModel
}

// IsOpen reports whether the invoice is still awaiting payment.
func (i *Invoice) IsOpen() bool {
	return i.InvoiceStatus == types.InvoiceStatusPending
}

// RecomputeTotal re-derives the invoice total from its line items.
func (i *Invoice) RecomputeTotal() {
	i.Total = lo.Reduce(i.LineItems, func(agg decimal.Decimal, item *LineItem, _ int) decimal.Decimal {
		return agg.Add(item.Amount)
	}, decimal.Zero)
}
