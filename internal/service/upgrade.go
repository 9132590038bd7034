package service

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/domain/proration"
	"github.com/cyclebill/cyclebill/internal/domain/upgrade"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/types"
)

// UpgradeService settles pending mid-cycle product changes. An upgrade whose
// subscription has already expired no longer applies and is pruned; the rest
// have their invoice line item recomputed from current elapsed time.
type UpgradeService interface {
	// SettlePendingUpgrades processes every pending upgrade record and
	// reports how many were settled and how many pruned. Per-upgrade
	// failures are logged and counted, never fatal for the pass.
	SettlePendingUpgrades(ctx context.Context, run types.RunContext) (settled, pruned, failed int, err error)
}

type upgradeService struct {
	ServiceParams
}

func NewUpgradeService(params ServiceParams) UpgradeService {
	return &upgradeService{
		ServiceParams: params,
	}
}

func (s *upgradeService) SettlePendingUpgrades(ctx context.Context, run types.RunContext) (settled, pruned, failed int, err error) {
	pending, err := s.UpgradeRepo.List(ctx)
	if err != nil {
		return 0, 0, 0, ierr.WithError(err).
			WithHint("failed to list pending upgrades").
			Mark(ierr.ErrDatabase)
	}

	for _, up := range pending {
		outcome, upErr := s.settleOne(ctx, run, up)
		if upErr != nil {
			s.Logger.Errorw("failed to settle pending upgrade",
				"upgrade_id", up.ID,
				"subscription_id", up.SubscriptionID,
				"error", upErr,
			)
			failed++
			continue
		}
		switch outcome {
		case upgradeOutcomePruned:
			pruned++
		case upgradeOutcomeSettled:
			settled++
		}
	}

	return settled, pruned, failed, nil
}

type upgradeOutcome int

const (
	upgradeOutcomeSkipped upgradeOutcome = iota
	upgradeOutcomeSettled
	upgradeOutcomePruned
)

func (s *upgradeService) settleOne(ctx context.Context, run types.RunContext, up *upgrade.Upgrade) (upgradeOutcome, error) {
	sub, err := s.SubRepo.Get(ctx, up.SubscriptionID)
	if err != nil {
		return upgradeOutcomeSkipped, ierr.WithError(err).
			WithHintf("upgrade %s references unknown subscription %s", up.ID, up.SubscriptionID).
			Mark(ierr.ErrNotFound)
	}

	// The cycle already rolled over without settling; the upgrade no longer
	// applies to the new cycle
	if sub.ExpiresAt.Before(run.Now) {
		if err := s.UpgradeRepo.Delete(ctx, up.ID); err != nil {
			return upgradeOutcomeSkipped, err
		}
		s.Logger.Infow("pruned expired pending upgrade",
			"upgrade_id", up.ID,
			"subscription_id", sub.ID,
		)
		return upgradeOutcomePruned, nil
	}

	cycleDays, err := types.CycleLengthDays(sub.BillingCycle)
	if err != nil {
		return upgradeOutcomeSkipped, err
	}

	prod, err := s.ProductRepo.Get(ctx, up.ProductID)
	if err != nil {
		return upgradeOutcomeSkipped, ierr.WithError(err).
			WithHintf("upgrade %s references unknown product %s", up.ID, up.ProductID).
			Mark(ierr.ErrNotFound)
	}

	elapsed := proration.ElapsedDays(sub.CurrentPeriodStart(), run.Now)
	amount, err := s.ProrationCalculator.Calculate(ctx, proration.Params{
		NewCycleTotal:   prod.Price,
		OldCycleTotal:   sub.Price,
		CycleLengthDays: cycleDays,
		ElapsedDays:     elapsed,
	})
	if err != nil {
		return upgradeOutcomeSkipped, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, up.InvoiceID)
	if err != nil {
		return upgradeOutcomeSkipped, ierr.WithError(err).
			WithHintf("upgrade %s references unknown invoice %s", up.ID, up.InvoiceID).
			Mark(ierr.ErrNotFound)
	}

	// Nothing to recompute once the invoice has settled or been cancelled
	if !inv.IsOpen() {
		return upgradeOutcomeSkipped, nil
	}

	if len(inv.LineItems) == 0 {
		return upgradeOutcomeSkipped, ierr.NewError("upgrade invoice has no line items").
			WithHintf("invoice %s for upgrade %s has no charge line", inv.ID, up.ID).
			Mark(ierr.ErrInvalidOperation)
	}

	// The charge overwrites the first line item, it never accumulates; the
	// line item and the recomputed total land atomically
	item := inv.LineItems[0]
	item.Amount = proration.RoundAmount(amount)
	item.UpdatedAt = run.Now
	inv.RecomputeTotal()
	inv.UpdatedAt = run.Now
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.InvoiceRepo.UpdateLineItem(ctx, item); err != nil {
			return err
		}
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return upgradeOutcomeSkipped, err
	}

	s.Logger.Infow("recomputed upgrade invoice line item",
		"upgrade_id", up.ID,
		"subscription_id", sub.ID,
		"invoice_id", inv.ID,
		"amount", item.Amount.StringFixed(2),
		"elapsed_days", elapsed,
	)
	return upgradeOutcomeSettled, nil
}
