package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/testutil"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newInvoiceRepoForTest(t *testing.T) (invoice.Repository, sqlmock.Sqlmock, *testutil.InMemoryWebhookPublisher) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	log, err := logger.NewLogger(types.LogLevelInfo)
	require.NoError(t, err)

	publisher := testutil.NewInMemoryWebhookPublisher()
	db := &postgres.DB{DB: sqlx.NewDb(mockDB, "sqlmock")}
	return NewInvoiceRepository(db, publisher, log), mock, publisher
}

func newInvoiceFixture(now time.Time) *invoice.Invoice {
	return &invoice.Invoice{
		ID:            "inv_evented",
		OrderID:       "ord_evented",
		UserID:        "user_evented",
		InvoiceStatus: types.InvoiceStatusPending,
		Total:         decimal.NewFromInt(50),
		BaseModel:     types.GetDefaultBaseModel(now),
	}
}

func TestInvoiceCreateAnnouncesOnWebhookTopic(t *testing.T) {
	repo, mock, publisher := newInvoiceRepoForTest(t)
	inv := newInvoiceFixture(time.Now().UTC())

	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(inv.ID, inv.OrderID, inv.UserID, inv.InvoiceStatus, inv.CancelledAt, inv.Total, inv.CreatedAt, inv.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), inv))
	require.NoError(t, mock.ExpectationsWereMet())

	events := publisher.EventsOfType(types.WebhookEventInvoiceCreated)
	require.Len(t, events, 1)
	require.True(t, inv.CreatedAt.Equal(events[0].Timestamp))
}

func TestInvoiceCreateQuietStaysOffTheWebhookTopic(t *testing.T) {
	repo, mock, publisher := newInvoiceRepoForTest(t)
	inv := newInvoiceFixture(time.Now().UTC())

	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(inv.ID, inv.OrderID, inv.UserID, inv.InvoiceStatus, inv.CancelledAt, inv.Total, inv.CreatedAt, inv.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateQuiet(context.Background(), inv))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Empty(t, publisher.Events())
}
