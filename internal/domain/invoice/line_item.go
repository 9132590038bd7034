package invoice

import (
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem is a billed line on an invoice. The amount may be negative for
// proration credits.
type LineItem struct {
	ID string `db:"id" json:"id"`

	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// SubscriptionID is the subscription this line bills
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// Description is the product name plus the billed period
	Description string `db:"description" json:"description"`

	Amount decimal.Decimal `db:"amount" json:"amount"`

	types.BaseModel
}
