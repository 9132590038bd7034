package order

import (
	"github.com/cyclebill/cyclebill/internal/types"
)

// Order is the customer order a subscription was purchased under.
type Order struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`

	types.BaseModel
}
