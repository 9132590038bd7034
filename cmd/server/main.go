package main

import (
	"context"
	"net/http"
	"time"

	"github.com/cyclebill/cyclebill/internal/api"
	"github.com/cyclebill/cyclebill/internal/api/cron"
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
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/provisioning"
	"github.com/cyclebill/cyclebill/internal/pubsub"
	pubsubMemory "github.com/cyclebill/cyclebill/internal/pubsub/memory"
	"github.com/cyclebill/cyclebill/internal/repository"
	"github.com/cyclebill/cyclebill/internal/scheduler"
	"github.com/cyclebill/cyclebill/internal/service"
	"github.com/cyclebill/cyclebill/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			newLogger,
			postgres.NewDB,
			newPubSub,
			webhook.NewPublisher,
			webhook.NewConsumer,
			provisioning.NewHTTPProvisioner,
			newNotifier,
			proration.NewCalculator,
			repository.NewSubscriptionRepository,
			repository.NewInvoiceRepository,
			repository.NewOrderRepository,
			repository.NewProductRepository,
			repository.NewUserRepository,
			repository.NewUpgradeRepository,
			repository.NewJobLogRepository,
			newServiceParams,
			service.NewSubscriptionLifecycleService,
			service.NewInvoiceService,
			service.NewUpgradeService,
			service.NewReconciliationService,
			cron.NewReconciliationHandler,
			newRouter,
			scheduler.New,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func newLogger(cfg *config.Configuration) (*logger.Logger, error) {
	return logger.NewLogger(cfg.Logging.Level)
}

func newPubSub(log *logger.Logger) pubsub.PubSub {
	return pubsubMemory.NewPubSub(log)
}

func newNotifier(cfg *config.Configuration, log *logger.Logger) email.Notifier {
	return email.NewService(cfg, log)
}

func newServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	db *postgres.DB,
	subRepo subscription.Repository,
	invoiceRepo invoice.Repository,
	orderRepo order.Repository,
	productRepo product.Repository,
	userRepo user.Repository,
	upgradeRepo upgrade.Repository,
	jobLogRepo joblog.Repository,
	provisioner provisioning.Provisioner,
	notifier email.Notifier,
	webhookPublisher webhook.Publisher,
	calculator proration.Calculator,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:              log,
		Config:              cfg,
		DB:                  db,
		SubRepo:             subRepo,
		InvoiceRepo:         invoiceRepo,
		OrderRepo:           orderRepo,
		ProductRepo:         productRepo,
		UserRepo:            userRepo,
		UpgradeRepo:         upgradeRepo,
		JobLogRepo:          jobLogRepo,
		Provisioner:         provisioner,
		Notifier:            notifier,
		WebhookPublisher:    webhookPublisher,
		ProrationCalculator: calculator,
	}
}

func newRouter(handler *cron.ReconciliationHandler, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(api.Handlers{Reconciliation: handler}, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	sched *scheduler.Scheduler,
	consumer *webhook.Consumer,
	db *postgres.DB,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := consumer.Start(ctx); err != nil {
				return err
			}
			if err := sched.Start(ctx); err != nil {
				return err
			}

			go func() {
				log.Infow("starting server", "address", cfg.Server.Address)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sched.Stop()
			db.Close()
			return srv.Shutdown(ctx)
		},
	})
}
