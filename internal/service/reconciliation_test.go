package service

import (
	"testing"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/joblog"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/product"
	"github.com/cyclebill/cyclebill/internal/domain/proration"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/upgrade"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	"github.com/cyclebill/cyclebill/internal/testutil"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  ReconciliationService
	testData struct {
		user    *user.User
		order   *order.Order
		product *product.Product
	}
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceSuite))
}

func (s *ReconciliationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		DB:                  s.GetTxRunner(),
		SubRepo:             s.GetStores().SubscriptionRepo,
		InvoiceRepo:         s.GetStores().InvoiceRepo,
		OrderRepo:           s.GetStores().OrderRepo,
		ProductRepo:         s.GetStores().ProductRepo,
		UserRepo:            s.GetStores().UserRepo,
		UpgradeRepo:         s.GetStores().UpgradeRepo,
		JobLogRepo:          s.GetStores().JobLogRepo,
		Provisioner:         s.GetProvisioner(),
		Notifier:            s.GetNotifier(),
		WebhookPublisher:    s.GetWebhookPublisher(),
		ProrationCalculator: proration.NewCalculator(),
	}

	s.service = NewReconciliationService(
		params,
		NewSubscriptionLifecycleService(params),
		NewInvoiceService(params),
		NewUpgradeService(params),
	)

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
		Name:      "Web Hosting",
		Price:     decimal.NewFromInt(50),
		BaseModel: types.GetDefaultBaseModel(s.GetNow()),
	}
	s.NoError(s.GetStores().ProductRepo.(*testutil.InMemoryProductStore).Create(s.GetContext(), s.testData.product))
}

func (s *ReconciliationServiceSuite) newSubscription(id string, status types.SubscriptionStatus, expiresAt time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                 id,
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

func (s *ReconciliationServiceSuite) TestFullRunCounters() {
	now := time.Now().UTC()

	// One expired active subscription to suspend, carrying the unpaid
	// invoice it is being suspended over
	expired := s.newSubscription("sub_expired", types.SubscriptionStatusActive, now.AddDate(0, 0, -1))
	s.NoError(s.GetStores().InvoiceRepo.CreateQuiet(s.GetContext(), &invoice.Invoice{
		ID:            "inv_overdue",
		OrderID:       s.testData.order.ID,
		UserID:        s.testData.user.ID,
		InvoiceStatus: types.InvoiceStatusPending,
		Total:         decimal.NewFromInt(50),
		LineItems: []*invoice.LineItem{{
			ID:             "inv_line_overdue",
			InvoiceID:      "inv_overdue",
			SubscriptionID: expired.ID,
			Amount:         decimal.NewFromInt(50),
		}},
		BaseModel: types.GetDefaultBaseModel(now),
	}))

	// One suspended subscription past the grace period to force-cancel
	s.newSubscription("sub_stale", types.SubscriptionStatusSuspended, now.AddDate(0, 0, -10))

	// One subscription inside the renewal window
	s.newSubscription("sub_renewing", types.SubscriptionStatusActive, now.AddDate(0, 0, 3))

	// One stale run log to purge
	s.NoError(s.GetStores().JobLogRepo.Create(s.GetContext(), &joblog.RunLog{
		ID:        "run_stale",
		StartedAt: now.AddDate(0, 0, -10),
		BaseModel: types.GetDefaultBaseModel(now),
	}))

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(1, summary.Suspended)
	s.Equal(1, summary.Cancelled)
	s.Equal(1, summary.InvoicesCreated)
	s.Equal(0, summary.UpgradesSettled)
	s.Equal(0, summary.UpgradesPruned)
	s.Equal(1, summary.LogsPurged)
	s.Equal(0, summary.Errors)

	// A run log for this run is persisted
	logs, err := s.GetStores().JobLogRepo.(*testutil.InMemoryJobLogStore).List(s.GetContext())
	s.NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(1, logs[0].Suspended)
	s.Equal(1, logs[0].Cancelled)
	s.Equal(1, logs[0].InvoicesCreated)
}

func (s *ReconciliationServiceSuite) TestUpgradeOfJustCancelledSubscriptionIsPrunedSameRun() {
	now := time.Now().UTC()

	// Past grace, will be force-cancelled in the expiring pass; its pending
	// upgrade is then pruned in the upgrade pass of the same run
	sub := s.newSubscription("sub_gone", types.SubscriptionStatusSuspended, now.AddDate(0, 0, -10))

	inv := &invoice.Invoice{
		ID:            "inv_upgrade",
		OrderID:       s.testData.order.ID,
		UserID:        s.testData.user.ID,
		InvoiceStatus: types.InvoiceStatusPending,
		Total:         decimal.Zero,
		LineItems: []*invoice.LineItem{{
			ID:             "inv_line_upgrade",
			InvoiceID:      "inv_upgrade",
			SubscriptionID: sub.ID,
			Amount:         decimal.Zero,
		}},
		BaseModel: types.GetDefaultBaseModel(now),
	}
	s.NoError(s.GetStores().InvoiceRepo.CreateQuiet(s.GetContext(), inv))

	s.NoError(s.GetStores().UpgradeRepo.(*testutil.InMemoryUpgradeStore).Create(s.GetContext(), &upgrade.Upgrade{
		ID:             "upg_gone",
		SubscriptionID: sub.ID,
		ProductID:      s.testData.product.ID,
		InvoiceID:      inv.ID,
		BaseModel:      types.GetDefaultBaseModel(now),
	}))

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(1, summary.Cancelled)
	s.Equal(1, summary.UpgradesPruned)
	s.Equal(0, summary.UpgradesSettled)

	remaining, err := s.GetStores().UpgradeRepo.List(s.GetContext())
	s.NoError(err)
	s.Empty(remaining)
}

func (s *ReconciliationServiceSuite) TestUpgradeSettlementInFullRun() {
	now := time.Now().UTC()

	periodStart := now.AddDate(0, 0, -10)
	sub := &subscription.Subscription{
		ID:                 "sub_upgrading",
		OrderID:            s.testData.order.ID,
		ProductID:          s.testData.product.ID,
		Price:              decimal.NewFromInt(60),
		BillingCycle:       types.BillingCycleMonthly,
		SubscriptionStatus: types.SubscriptionStatusActive,
		ExpiresAt:          types.NextBillingDate(periodStart, types.BillingCycleMonthly),
		BaseModel:          types.GetDefaultBaseModel(now),
	}
	s.NoError(s.GetStores().SubscriptionRepo.(*testutil.InMemorySubscriptionStore).Create(s.GetContext(), sub))

	premium := &product.Product{
		ID:        "prod_premium",
		Name:      "Premium",
		Price:     decimal.NewFromInt(100),
		BaseModel: types.GetDefaultBaseModel(now),
	}
	s.NoError(s.GetStores().ProductRepo.(*testutil.InMemoryProductStore).Create(s.GetContext(), premium))

	inv := &invoice.Invoice{
		ID:            "inv_upgrade",
		OrderID:       s.testData.order.ID,
		UserID:        s.testData.user.ID,
		InvoiceStatus: types.InvoiceStatusPending,
		Total:         decimal.Zero,
		LineItems: []*invoice.LineItem{{
			ID:             "inv_line_upgrade",
			InvoiceID:      "inv_upgrade",
			SubscriptionID: sub.ID,
			Description:    "Upgrade to Premium",
			Amount:         decimal.Zero,
		}},
		BaseModel: types.GetDefaultBaseModel(now),
	}
	s.NoError(s.GetStores().InvoiceRepo.CreateQuiet(s.GetContext(), inv))

	s.NoError(s.GetStores().UpgradeRepo.(*testutil.InMemoryUpgradeStore).Create(s.GetContext(), &upgrade.Upgrade{
		ID:             "upg_pending",
		SubscriptionID: sub.ID,
		ProductID:      premium.ID,
		InvoiceID:      inv.ID,
		BaseModel:      types.GetDefaultBaseModel(now),
	}))

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(1, summary.UpgradesSettled)
	s.Equal(0, summary.Errors)

	// Elapsed days derive from the period start the service reconstructs
	// from the expiry date, so the expectation does too
	elapsed := proration.ElapsedDays(sub.CurrentPeriodStart(), now)
	expected := premium.Price.Sub(sub.Price.Div(decimal.NewFromInt(30)).Mul(decimal.NewFromInt(int64(elapsed))))
	expected = proration.RoundAmount(expected)

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Require().Len(stored.LineItems, 1)
	s.Equal(expected.StringFixed(2), stored.LineItems[0].Amount.StringFixed(2))
	s.Equal(expected.StringFixed(2), stored.Total.StringFixed(2))
}

func (s *ReconciliationServiceSuite) TestPerSubscriptionErrorsAreIsolated() {
	now := time.Now().UTC()

	// Broken subscription pointing at a missing order
	broken := s.newSubscription("sub_broken", types.SubscriptionStatusActive, now.AddDate(0, 0, -1))
	broken.OrderID = "ord_missing"
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), broken))

	// Healthy subscription processed despite the broken one
	s.newSubscription("sub_healthy", types.SubscriptionStatusActive, now.AddDate(0, 0, -1))

	summary, err := s.service.RunExpiring(s.GetContext())
	s.NoError(err)
	s.Equal(1, summary.Suspended)
	s.Equal(1, summary.Errors)

	stored, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), "sub_healthy")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusSuspended, stored.SubscriptionStatus)
}

func (s *ReconciliationServiceSuite) TestSecondRunIsIdempotent() {
	now := time.Now().UTC()
	s.newSubscription("sub_expired", types.SubscriptionStatusActive, now.AddDate(0, 0, -1))

	first, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(1, first.Suspended)

	second, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(0, second.Suspended)
	s.Equal(0, second.Cancelled)

	// Still exactly one suspension side effect in total
	s.Len(s.GetProvisioner().SuspendedIDs, 1)
	s.Len(s.GetNotifier().SentOfKind("unpaid_invoice"), 1)
}

func (s *ReconciliationServiceSuite) TestRunExpiringOnlyRunsLifecyclePass() {
	now := time.Now().UTC()
	s.newSubscription("sub_expired", types.SubscriptionStatusActive, now.AddDate(0, 0, -1))
	s.newSubscription("sub_renewing", types.SubscriptionStatusActive, now.AddDate(0, 0, 3))

	summary, err := s.service.RunExpiring(s.GetContext())
	s.NoError(err)
	s.Equal(1, summary.Suspended)
	s.Equal(0, summary.InvoicesCreated)
}

func (s *ReconciliationServiceSuite) TestRunRenewalsOnlyGeneratesInvoices() {
	now := time.Now().UTC()
	s.newSubscription("sub_expired", types.SubscriptionStatusActive, now.AddDate(0, 0, -1))
	s.newSubscription("sub_renewing", types.SubscriptionStatusActive, now.AddDate(0, 0, 3))

	summary, err := s.service.RunRenewals(s.GetContext())
	s.NoError(err)
	s.Equal(0, summary.Suspended)

	// Both subscriptions sit inside the renewal window; the expired one gets
	// an invoice too since it has not been cancelled
	s.Equal(2, summary.InvoicesCreated)
}

func (s *ReconciliationServiceSuite) TestRenewalSkipsCancelledSubscriptions() {
	now := time.Now().UTC()
	s.newSubscription("sub_cancelled", types.SubscriptionStatusCancelled, now.AddDate(0, 0, 3))

	summary, err := s.service.RunRenewals(s.GetContext())
	s.NoError(err)
	s.Equal(0, summary.InvoicesCreated)
}

func (s *ReconciliationServiceSuite) TestRetentionKeepsRecentLogs() {
	now := time.Now().UTC()
	s.NoError(s.GetStores().JobLogRepo.Create(s.GetContext(), &joblog.RunLog{
		ID:        "run_recent",
		StartedAt: now.AddDate(0, 0, -2),
		BaseModel: types.GetDefaultBaseModel(now),
	}))

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(0, summary.LogsPurged)

	logs, err := s.GetStores().JobLogRepo.(*testutil.InMemoryJobLogStore).List(s.GetContext())
	s.NoError(err)
	s.Len(logs, 2)
}
