package service

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/domain/invoice"
	"github.com/cyclebill/cyclebill/internal/domain/joblog"
	"github.com/cyclebill/cyclebill/internal/domain/order"
	"github.com/cyclebill/cyclebill/internal/domain/product"
	"github.com/cyclebill/cyclebill/internal/domain/proration"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/domain/upgrade"
	"github.com/cyclebill/cyclebill/internal/domain/user"
	"github.com/cyclebill/cyclebill/internal/email"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/provisioning"
	"github.com/cyclebill/cyclebill/internal/webhook"
)

// TxRunner executes fn atomically. The postgres client satisfies it by
// carrying the transaction in the context, where repositories pick it up.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     TxRunner

	// Repositories
	SubRepo     subscription.Repository
	InvoiceRepo invoice.Repository
	OrderRepo   order.Repository
	ProductRepo product.Repository
	UserRepo    user.Repository
	UpgradeRepo upgrade.Repository
	JobLogRepo  joblog.Repository

	// External collaborators
	Provisioner      provisioning.Provisioner
	Notifier         email.Notifier
	WebhookPublisher webhook.Publisher

	// Calculators
	ProrationCalculator proration.Calculator
}
