package user

import (
	"github.com/cyclebill/cyclebill/internal/types"
)

// User is the owner of an order; the notification layer addresses mail to it.
type User struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`

	types.BaseModel
}
