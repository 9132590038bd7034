package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

type orderRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewOrderRepository(db *postgres.DB, logger *logger.Logger) order.Repository {
	return &orderRepository{db: db, logger: logger}
}

func (r *orderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	q := r.db.GetQuerier(ctx)

	var ord order.Order
	err := q.GetContext(ctx, &ord, `
		SELECT id, user_id, created_at, updated_at
		FROM orders
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("order not found").
				WithHintf("no order with id %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get order").
			Mark(ierr.ErrDatabase)
	}
	return &ord, nil
}
