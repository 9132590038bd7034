package repository

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/joblog"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

type jobLogRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewJobLogRepository(db *postgres.DB, logger *logger.Logger) joblog.Repository {
	return &jobLogRepository{db: db, logger: logger}
}

func (r *jobLogRepository) Create(ctx context.Context, log *joblog.RunLog) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.ExecContext(ctx, `
		INSERT INTO run_logs (
			id, started_at, finished_at, suspended, cancelled, invoices_created,
			upgrades_settled, upgrades_pruned, logs_purged, errors, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		log.ID, log.StartedAt, log.FinishedAt, log.Suspended, log.Cancelled,
		log.InvoicesCreated, log.UpgradesSettled, log.UpgradesPruned,
		log.LogsPurged, log.Errors, log.CreatedAt, log.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to create run log").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *jobLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	q := r.db.GetQuerier(ctx)

	res, err := q.ExecContext(ctx, `DELETE FROM run_logs WHERE started_at < $1`, before)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("failed to purge old run logs").
			Mark(ierr.ErrDatabase)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(rows), nil
}
