package service

import (
	"testing"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/product"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	"github.com/cyclebill/cyclebill/internal/testutil"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	run      types.RunContext
	testData struct {
		user    *user.User
		order   *order.Order
		product *product.Product
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.service = NewInvoiceService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetTxRunner(),
		SubRepo:          s.GetStores().SubscriptionRepo,
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		OrderRepo:        s.GetStores().OrderRepo,
		ProductRepo:      s.GetStores().ProductRepo,
		UserRepo:         s.GetStores().UserRepo,
		UpgradeRepo:      s.GetStores().UpgradeRepo,
		JobLogRepo:       s.GetStores().JobLogRepo,
		Provisioner:      s.GetProvisioner(),
		Notifier:         s.GetNotifier(),
		WebhookPublisher: s.GetWebhookPublisher(),
	})

	s.run = types.NewRunContext(s.GetNow(), 7, 7, 7)

	s.testData.user = &user.User{
		ID:        "user_test",
		Name:      "Test User",
		Email:     "test@example.com",
		BaseModel: types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().UserRepo.(*testutil.InMemoryUserStore).Create(s.GetContext(), s.testData.user))

	s.testData.order = &order.Order{
		ID:        "ord_test",
		UserID:    s.testData.user.ID,
		BaseModel: types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().OrderRepo.(*testutil.InMemoryOrderStore).Create(s.GetContext(), s.testData.order))

	s.testData.product = &product.Product{
		ID:        "prod_test",
		Name:      "Web Hosting Plus",
		Price:     decimal.NewFromInt(50),
		BaseModel: types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().ProductRepo.(*testutil.InMemoryProductStore).Create(s.GetContext(), s.testData.product))
}

func (s *InvoiceServiceSuite) newSubscription(status types.SubscriptionStatus, expiresAt time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrderID:            s.testData.order.ID,
		ProductID:          s.testData.product.ID,
		Price:              decimal.NewFromInt(50),
		BillingCycle:       types.BillingCycleMonthly,
		SubscriptionStatus: status,
		ExpiresAt:          expiresAt,
		BaseModel:          types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().SubscriptionRepo.(*testutil.InMemorySubscriptionStore).Create(s.GetContext(), sub))
	return sub
}

func (s *InvoiceServiceSuite) TestEligibleWithinRenewalWindow() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.True(eligible)
}

func (s *InvoiceServiceSuite) TestNotEligibleOutsideRenewalWindow() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 10))

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.False(eligible)
}

func (s *InvoiceServiceSuite) TestNotEligibleWhenCancelled() {
	sub := s.newSubscription(types.SubscriptionStatusCancelled, s.GetNow().AddDate(0, 0, 3))

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.False(eligible)
}

func (s *InvoiceServiceSuite) TestNotEligibleWhenExempt() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))
	sub.Price = decimal.Zero

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.False(eligible)
}

func (s *InvoiceServiceSuite) TestNotEligibleWithPendingCancellationRequest() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))
	sub.CancellationRequest = &subscription.CancellationRequest{
		ID:             "cxl_test",
		SubscriptionID: sub.ID,
	}

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.False(eligible)
}

func (s *InvoiceServiceSuite) TestNotEligibleWithOpenInvoice() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))

	inv := &invoice.Invoice{
		ID:            "inv_existing",
		OrderID:       s.testData.order.ID,
		UserID:        s.testData.user.ID,
		InvoiceStatus: types.InvoiceStatusPending,
		Total:         decimal.NewFromInt(50),
		LineItems: []*invoice.LineItem{{
			ID:             "inv_line_existing",
			InvoiceID:      "inv_existing",
			SubscriptionID: sub.ID,
			Amount:         decimal.NewFromInt(50),
		}},
		BaseModel: types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().InvoiceRepo.CreateQuiet(s.GetContext(), inv))

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.False(eligible)
}

func (s *InvoiceServiceSuite) TestPaidInvoiceDoesNotBlockRenewal() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))

	inv := &invoice.Invoice{
		ID:            "inv_paid",
		OrderID:       s.testData.order.ID,
		UserID:        s.testData.user.ID,
		InvoiceStatus: types.InvoiceStatusPaid,
		Total:         decimal.NewFromInt(50),
		LineItems: []*invoice.LineItem{{
			ID:             "inv_line_paid",
			InvoiceID:      "inv_paid",
			SubscriptionID: sub.ID,
			Amount:         decimal.NewFromInt(50),
		}},
		BaseModel: types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().InvoiceRepo.CreateQuiet(s.GetContext(), inv))

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.True(eligible)
}

func (s *InvoiceServiceSuite) TestGenerateRenewalInvoice() {
	expiresAt := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	sub := s.newSubscription(types.SubscriptionStatusActive, expiresAt)

	inv, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.NotNil(inv)
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)
	s.Equal(s.testData.order.ID, inv.OrderID)
	s.Equal(s.testData.user.ID, inv.UserID)
	s.True(decimal.NewFromInt(50).Equal(inv.Total))

	s.Require().Len(inv.LineItems, 1)
	item := inv.LineItems[0]
	s.Equal(sub.ID, item.SubscriptionID)
	s.True(decimal.NewFromInt(50).Equal(item.Amount))
	s.Equal("Web Hosting Plus (2024-03-15 - 2024-04-15)", item.Description)

	// Persisted with its line item
	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(stored.LineItems, 1)

	events := s.GetWebhookPublisher().EventsOfType(types.WebhookEventInvoiceCreated)
	s.Len(events, 1)

	notices := s.GetNotifier().SentOfKind("new_invoice")
	s.Len(notices, 1)
	s.Equal(inv.ID, notices[0].InvoiceID)

	// Non-zero total is not auto-settled
	s.Empty(s.GetProvisioner().PaidInvoiceIDs)
}

func (s *InvoiceServiceSuite) TestGenerateRenewalInvoiceZeroTotalAutoSettles() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))
	sub.Price = decimal.Zero

	inv, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.Equal([]string{inv.ID}, s.GetProvisioner().PaidInvoiceIDs)
}

func (s *InvoiceServiceSuite) TestGenerateBlocksSecondInvoiceInWindow() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))

	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.True(eligible)

	_, err = s.service.GenerateRenewalInvoice(s.GetContext(), s.run, sub)
	s.NoError(err)

	// The freshly created open invoice blocks a second one
	eligible, err = s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.False(eligible)
}

func (s *InvoiceServiceSuite) TestGenerateRollsBackHeaderOnLineItemFailure() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))

	store := s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore)
	store.AddLineItemErr = errTest

	_, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.run, sub)
	s.Error(err)

	// No headerless invoice survives the failed write
	all, listErr := store.List(s.GetContext(), nil, nil, nil)
	s.NoError(listErr)
	s.Empty(all)
	s.Empty(s.GetWebhookPublisher().Events())
	s.Empty(s.GetNotifier().Sent)

	// The subscription stays eligible for the next pass
	store.AddLineItemErr = nil
	eligible, err := s.service.EligibleForRenewal(s.GetContext(), s.run, sub)
	s.NoError(err)
	s.True(eligible)
}

func (s *InvoiceServiceSuite) TestGenerateFailsOnMissingProduct() {
	sub := s.newSubscription(types.SubscriptionStatusActive, s.GetNow().AddDate(0, 0, 3))
	sub.ProductID = "prod_missing"

	_, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.run, sub)
	s.Error(err)
}
