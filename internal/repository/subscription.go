package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `
	id, order_id, product_id, price, billing_cycle, subscription_status,
	expires_at, created_at, updated_at`

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	q := r.db.GetQuerier(ctx)

	var sub subscription.Subscription
	err := q.GetContext(ctx, &sub, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("subscription not found").
				WithHintf("no subscription with id %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get subscription").
			Mark(ierr.ErrDatabase)
	}

	if err := r.attachCancellationRequests(ctx, []*subscription.Subscription{&sub}); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.ExecContext(ctx, `
		UPDATE subscriptions
		SET subscription_status = $2, price = $3, expires_at = $4, updated_at = $5
		WHERE id = $1`,
		sub.ID, sub.SubscriptionStatus, sub.Price, sub.ExpiresAt, sub.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to update subscription").
			Mark(ierr.ErrDatabase)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ierr.NewError("subscription not found").
			WithHintf("no subscription with id %s", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) ListExpired(ctx context.Context, before time.Time) ([]*subscription.Subscription, error) {
	q := r.db.GetQuerier(ctx)

	var subs []*subscription.Subscription
	err := q.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE expires_at < $1
		ORDER BY expires_at ASC`, before)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list expired subscriptions").
			Mark(ierr.ErrDatabase)
	}

	if err := r.attachCancellationRequests(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) ListExpiring(ctx context.Context, before time.Time, excludeStatus types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	q := r.db.GetQuerier(ctx)

	var subs []*subscription.Subscription
	err := q.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE expires_at < $1 AND subscription_status != $2
		ORDER BY expires_at ASC`, before, excludeStatus)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list expiring subscriptions").
			Mark(ierr.ErrDatabase)
	}

	if err := r.attachCancellationRequests(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// attachCancellationRequests loads the pending cancellation request, if any,
// for each subscription in one query.
func (r *subscriptionRepository) attachCancellationRequests(ctx context.Context, subs []*subscription.Subscription) error {
	if len(subs) == 0 {
		return nil
	}

	ids := make([]string, len(subs))
	bySubscription := make(map[string]*subscription.Subscription, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
		bySubscription[sub.ID] = sub
	}

	query, args, err := sqlxIn(`
		SELECT id, subscription_id, requested_by, reason, created_at, updated_at
		FROM cancellation_requests
		WHERE subscription_id IN (?)`, ids)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to build cancellation request query").
			Mark(ierr.ErrDatabase)
	}

	q := r.db.GetQuerier(ctx)
	var requests []*subscription.CancellationRequest
	if err := q.SelectContext(ctx, &requests, r.db.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("failed to load cancellation requests").
			Mark(ierr.ErrDatabase)
	}

	for _, req := range requests {
		if sub, ok := bySubscription[req.SubscriptionID]; ok {
			sub.CancellationRequest = req
		}
	}
	return nil
}
