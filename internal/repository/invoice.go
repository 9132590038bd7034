package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/cyclebill/cyclebill/internal/webhook"
)

// invoiceRepository persists invoices. The evented Create announces the new
// invoice on the webhook topic; CreateQuiet is the batch path with no side
// effects.
type invoiceRepository struct {
	db        *postgres.DB
	publisher webhook.Publisher
	logger    *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, publisher webhook.Publisher, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, publisher: publisher, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.CreateQuiet(ctx, inv); err != nil {
		return err
	}

	event := types.NewWebhookEvent(types.WebhookEventInvoiceCreated, inv, inv.CreatedAt)
	if err := r.publisher.PublishWebhook(ctx, event); err != nil {
		r.logger.Errorw("failed to announce created invoice",
			"invoice_id", inv.ID,
			"error", err,
		)
	}
	return nil
}

func (r *invoiceRepository) CreateQuiet(ctx context.Context, inv *invoice.Invoice) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.ExecContext(ctx, `
		INSERT INTO invoices (id, order_id, user_id, invoice_status, cancelled_at, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.OrderID, inv.UserID, inv.InvoiceStatus, inv.CancelledAt, inv.Total, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	q := r.db.GetQuerier(ctx)

	var inv invoice.Invoice
	err := q.GetContext(ctx, &inv, `
		SELECT id, order_id, user_id, invoice_status, cancelled_at, total, created_at, updated_at
		FROM invoices
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("invoice not found").
				WithHintf("no invoice with id %s", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	if err := q.SelectContext(ctx, &inv.LineItems, `
		SELECT id, invoice_id, subscription_id, description, amount, created_at, updated_at
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY created_at ASC`, id); err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to load invoice line items").
			Mark(ierr.ErrDatabase)
	}

	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.ExecContext(ctx, `
		UPDATE invoices
		SET invoice_status = $2, cancelled_at = $3, total = $4, updated_at = $5
		WHERE id = $1`,
		inv.ID, inv.InvoiceStatus, inv.CancelledAt, inv.Total, inv.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to update invoice").
			Mark(ierr.ErrDatabase)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ierr.NewError("invoice not found").
			WithHintf("no invoice with id %s", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) AddLineItem(ctx context.Context, item *invoice.LineItem) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.ExecContext(ctx, `
		INSERT INTO invoice_line_items (id, invoice_id, subscription_id, description, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.InvoiceID, item.SubscriptionID, item.Description, item.Amount, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to add invoice line item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) UpdateLineItem(ctx context.Context, item *invoice.LineItem) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.ExecContext(ctx, `
		UPDATE invoice_line_items
		SET description = $2, amount = $3, updated_at = $4
		WHERE id = $1`,
		item.ID, item.Description, item.Amount, item.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to update invoice line item").
			Mark(ierr.ErrDatabase)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ierr.NewError("invoice line item not found").
			WithHintf("no line item with id %s", item.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) ListOpenBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	q := r.db.GetQuerier(ctx)

	var invoices []*invoice.Invoice
	err := q.SelectContext(ctx, &invoices, `
		SELECT DISTINCT i.id, i.order_id, i.user_id, i.invoice_status, i.cancelled_at, i.total, i.created_at, i.updated_at
		FROM invoices i
		JOIN invoice_line_items li ON li.invoice_id = i.id
		WHERE li.subscription_id = $1 AND i.invoice_status = $2
		ORDER BY i.created_at ASC`, subscriptionID, types.InvoiceStatusPending)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list open invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}
