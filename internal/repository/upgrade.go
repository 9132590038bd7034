package repository

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/upgrade"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

type upgradeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUpgradeRepository(db *postgres.DB, logger *logger.Logger) upgrade.Repository {
	return &upgradeRepository{db: db, logger: logger}
}

func (r *upgradeRepository) List(ctx context.Context) ([]*upgrade.Upgrade, error) {
	q := r.db.GetQuerier(ctx)

	var upgrades []*upgrade.Upgrade
	err := q.SelectContext(ctx, &upgrades, `
		SELECT id, subscription_id, product_id, invoice_id, created_at, updated_at
		FROM upgrades
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list pending upgrades").
			Mark(ierr.ErrDatabase)
	}
	return upgrades, nil
}

func (r *upgradeRepository) Delete(ctx context.Context, id string) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.ExecContext(ctx, `DELETE FROM upgrades WHERE id = $1`, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to delete pending upgrade").
			Mark(ierr.ErrDatabase)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ierr.NewError("pending upgrade not found").
			WithHintf("no upgrade with id %s", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
