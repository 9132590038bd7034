package product

import (
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/shopspring/decimal"
)

// Product is a sellable product. Price is the full-cycle price charged for
// one billing cycle of the subscription it backs.
type Product struct {
	ID    string          `db:"id" json:"id"`
	Name  string          `db:"name" json:"name"`
	Price decimal.Decimal `db:"price" json:"price"`

	types.BaseModel
}
