package service

import (
	"context"
	"sync"
	"time"

	"github.com/cyclebill/cyclebill/internal/domain/joblog"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

// ReconciliationSummary aggregates the counters of one run.
type ReconciliationSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Suspended       int `json:"suspended"`
	Cancelled       int `json:"cancelled"`
	InvoicesCreated int `json:"invoices_created"`
	UpgradesSettled int `json:"upgrades_settled"`
	UpgradesPruned  int `json:"upgrades_pruned"`
	LogsPurged      int `json:"logs_purged"`
	Errors          int `json:"errors"`
}

// ReconciliationService orchestrates one full reconciliation run: the
// expiring pass, the upcoming (renewal invoice) pass, the upgrade settlement
// pass, and log retention. Passes over different subscriptions are
// independent, but for any one subscription the expiring pass runs before
// upgrade pruning, so a just-cancelled subscription's upgrade is pruned in
// the same run it transitions.
type ReconciliationService interface {
	// Run executes all passes with a fresh run context built from config.
	Run(ctx context.Context) (*ReconciliationSummary, error)

	// RunExpiring executes only the lifecycle pass.
	RunExpiring(ctx context.Context) (*ReconciliationSummary, error)

	// RunRenewals executes only the renewal invoice pass.
	RunRenewals(ctx context.Context) (*ReconciliationSummary, error)

	// RunUpgrades executes only the upgrade settlement pass.
	RunUpgrades(ctx context.Context) (*ReconciliationSummary, error)
}

type reconciliationService struct {
	ServiceParams
	lifecycle SubscriptionLifecycleService
	invoices  InvoiceService
	upgrades  UpgradeService

	// one active run per process; concurrent ticks are rejected
	mu sync.Mutex
}

func NewReconciliationService(
	params ServiceParams,
	lifecycle SubscriptionLifecycleService,
	invoices InvoiceService,
	upgrades UpgradeService,
) ReconciliationService {
	return &reconciliationService{
		ServiceParams: params,
		lifecycle:     lifecycle,
		invoices:      invoices,
		upgrades:      upgrades,
	}
}

// newRunContext anchors a run at the current time with the configured
// windows.
func (s *reconciliationService) newRunContext() types.RunContext {
	cfg := s.Config.Reconciliation
	return types.NewRunContext(time.Now(), cfg.GraceDays, cfg.RenewalWindowDays, cfg.LogRetentionDays)
}

func (s *reconciliationService) Run(ctx context.Context) (*ReconciliationSummary, error) {
	if !s.mu.TryLock() {
		return nil, ierr.NewError("reconciliation run already in progress").
			WithHint("Only one reconciliation run may be active at a time").
			Mark(ierr.ErrInvalidOperation)
	}
	defer s.mu.Unlock()

	run := s.newRunContext()
	summary := &ReconciliationSummary{StartedAt: run.Now}

	s.Logger.Infow("starting reconciliation run",
		"now", run.Now,
		"grace_days", run.GraceDays,
		"renewal_window_days", run.RenewalWindowDays,
	)

	if err := s.expiringPass(ctx, run, summary); err != nil {
		return nil, err
	}
	if err := s.renewalPass(ctx, run, summary); err != nil {
		return nil, err
	}
	if err := s.upgradePass(ctx, run, summary); err != nil {
		return nil, err
	}
	s.retentionPass(ctx, run, summary)

	summary.FinishedAt = time.Now().UTC()
	s.persistRunLog(ctx, run, summary)

	s.Logger.Infow("completed reconciliation run",
		"suspended", summary.Suspended,
		"cancelled", summary.Cancelled,
		"invoices_created", summary.InvoicesCreated,
		"upgrades_settled", summary.UpgradesSettled,
		"upgrades_pruned", summary.UpgradesPruned,
		"logs_purged", summary.LogsPurged,
		"errors", summary.Errors,
	)
	return summary, nil
}

func (s *reconciliationService) RunExpiring(ctx context.Context) (*ReconciliationSummary, error) {
	run := s.newRunContext()
	summary := &ReconciliationSummary{StartedAt: run.Now}
	if err := s.expiringPass(ctx, run, summary); err != nil {
		return nil, err
	}
	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}

func (s *reconciliationService) RunRenewals(ctx context.Context) (*ReconciliationSummary, error) {
	run := s.newRunContext()
	summary := &ReconciliationSummary{StartedAt: run.Now}
	if err := s.renewalPass(ctx, run, summary); err != nil {
		return nil, err
	}
	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}

func (s *reconciliationService) RunUpgrades(ctx context.Context) (*ReconciliationSummary, error) {
	run := s.newRunContext()
	summary := &ReconciliationSummary{StartedAt: run.Now}
	if err := s.upgradePass(ctx, run, summary); err != nil {
		return nil, err
	}
	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}

// expiringPass advances every subscription past its expiry through the
// state machine. A repository failure listing candidates is fatal; a
// per-subscription failure is logged and counted.
func (s *reconciliationService) expiringPass(ctx context.Context, run types.RunContext, summary *ReconciliationSummary) error {
	expired, err := s.SubRepo.ListExpired(ctx, run.Now)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to list expired subscriptions").
			Mark(ierr.ErrDatabase)
	}

	for _, sub := range expired {
		transition, err := s.lifecycle.ProcessExpiredSubscription(ctx, run, sub)
		if err != nil {
			s.Logger.Errorw("failed to process expired subscription",
				"subscription_id", sub.ID,
				"error", err,
			)
			summary.Errors++
			continue
		}

		switch transition {
		case TransitionSuspended:
			summary.Suspended++
		case TransitionCancelled:
			summary.Cancelled++
		}
	}

	return nil
}

// renewalPass generates renewal invoices for subscriptions entering the
// renewal window.
func (s *reconciliationService) renewalPass(ctx context.Context, run types.RunContext, summary *ReconciliationSummary) error {
	upcoming, err := s.SubRepo.ListExpiring(ctx, run.RenewalCutoff(), types.SubscriptionStatusCancelled)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to list upcoming subscriptions").
			Mark(ierr.ErrDatabase)
	}

	for _, sub := range upcoming {
		eligible, err := s.invoices.EligibleForRenewal(ctx, run, sub)
		if err != nil {
			s.Logger.Errorw("failed to evaluate renewal eligibility",
				"subscription_id", sub.ID,
				"error", err,
			)
			summary.Errors++
			continue
		}
		if !eligible {
			continue
		}

		if _, err := s.invoices.GenerateRenewalInvoice(ctx, run, sub); err != nil {
			s.Logger.Errorw("failed to generate renewal invoice",
				"subscription_id", sub.ID,
				"error", err,
			)
			summary.Errors++
			continue
		}
		summary.InvoicesCreated++
	}

	s.Logger.Infow("renewal invoices sent", "count", summary.InvoicesCreated)
	return nil
}

func (s *reconciliationService) upgradePass(ctx context.Context, run types.RunContext, summary *ReconciliationSummary) error {
	settled, pruned, failed, err := s.upgrades.SettlePendingUpgrades(ctx, run)
	if err != nil {
		return err
	}
	summary.UpgradesSettled += settled
	summary.UpgradesPruned += pruned
	summary.Errors += failed
	return nil
}

// retentionPass purges old run logs. Failures never fail the run.
func (s *reconciliationService) retentionPass(ctx context.Context, run types.RunContext, summary *ReconciliationSummary) {
	purged, err := s.JobLogRepo.DeleteOlderThan(ctx, run.LogCutoff())
	if err != nil {
		s.Logger.Errorw("failed to purge old run logs", "error", err)
		summary.Errors++
		return
	}
	summary.LogsPurged = purged
	s.Logger.Infow("logs purged", "count", purged)
}

func (s *reconciliationService) persistRunLog(ctx context.Context, run types.RunContext, summary *ReconciliationSummary) {
	log := &joblog.RunLog{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RUN_LOG),
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
		Suspended:       summary.Suspended,
		Cancelled:       summary.Cancelled,
		InvoicesCreated: summary.InvoicesCreated,
		UpgradesSettled: summary.UpgradesSettled,
		UpgradesPruned:  summary.UpgradesPruned,
		LogsPurged:      summary.LogsPurged,
		Errors:          summary.Errors,
		BaseModel:       types.GetDefaultBaseModel(run.Now),
	}
	if err := s.JobLogRepo.Create(ctx, log); err != nil {
		s.Logger.Errorw("failed to persist run log", "error", err)
	}
}
