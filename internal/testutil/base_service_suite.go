package testutil

import (
	"context"
	"time"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/joblog"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/product"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/upgrade"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	SubscriptionRepo subscription.Repository
	InvoiceRepo      invoice.Repository
	OrderRepo        order.Repository
	ProductRepo      product.Repository
	UserRepo         user.Repository
	UpgradeRepo      upgrade.Repository
	JobLogRepo       joblog.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: in-memory stores, recording mocks for the outbound capabilities,
// and a fixed clock.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	provisioner      *MockProvisioner
	notifier         *MockNotifier
	webhookPublisher *InMemoryWebhookPublisher
	txRunner         *InMemoryTxRunner
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.setupStores()
	s.provisioner = NewMockProvisioner()
	s.notifier = NewMockNotifier()
	s.webhookPublisher = NewInMemoryWebhookPublisher()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
	s.provisioner.Clear()
	s.notifier.Clear()
	s.webhookPublisher.Clear()
}

func (s *BaseServiceTestSuite) setupStores() {
	subscriptions := NewInMemorySubscriptionStore()
	invoices := NewInMemoryInvoiceStore()
	s.txRunner = NewInMemoryTxRunner(subscriptions, invoices)
	s.stores = Stores{
		SubscriptionRepo: subscriptions,
		InvoiceRepo:      invoices,
		OrderRepo:        NewInMemoryOrderStore(),
		ProductRepo:      NewInMemoryProductStore(),
		UserRepo:         NewInMemoryUserStore(),
		UpgradeRepo:      NewInMemoryUpgradeStore(),
		JobLogRepo:       NewInMemoryJobLogStore(),
	}
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.OrderRepo.(*InMemoryOrderStore).Clear()
	s.stores.ProductRepo.(*InMemoryProductStore).Clear()
	s.stores.UserRepo.(*InMemoryUserStore).Clear()
	s.stores.UpgradeRepo.(*InMemoryUpgradeStore).Clear()
	s.stores.JobLogRepo.(*InMemoryJobLogStore).Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetProvisioner returns the recording provisioner mock
func (s *BaseServiceTestSuite) GetProvisioner() *MockProvisioner {
	return s.provisioner
}

// GetNotifier returns the recording notifier mock
func (s *BaseServiceTestSuite) GetNotifier() *MockNotifier {
	return s.notifier
}

// GetWebhookPublisher returns the capturing webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() *InMemoryWebhookPublisher {
	return s.webhookPublisher
}

// GetTxRunner returns the rollback-capable transaction runner for the stores
func (s *BaseServiceTestSuite) GetTxRunner() *InMemoryTxRunner {
	return s.txRunner
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
