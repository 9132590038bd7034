package repository

import (
	"github.com/jmoiron/sqlx"
)

// sqlxIn expands an IN (?) clause into positional placeholders.
func sqlxIn(query string, args ...interface{}) (string, []interface{}, error) {
	return sqlx.In(query, args...)
}
