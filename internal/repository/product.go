package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/cyclebill/cyclebill/internal/domain/product"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

type productRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewProductRepository(db *postgres.DB, logger *logger.Logger) product.Repository {
	return &productRepository{db: db, logger: logger}
}

func (r *productRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	q := r.db.GetQuerier(ctx)

	var prod product.Product
	err := q.GetContext(ctx, &prod, `
		SELECT id, name, price, created_at, updated_at
		FROM products
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("product not found").
				WithHintf("no product with id %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get product").
			Mark(ierr.ErrDatabase)
	}
	return &prod, nil
}
