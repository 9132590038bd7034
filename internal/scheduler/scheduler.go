// Package scheduler drives the reconciliation job on an in-process cron
// schedule. Most deployments trigger runs through the cron API instead; the
// in-process schedule exists for single-binary installs.
package scheduler

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/service"
	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron                  *cron.Cron
	reconciliationService service.ReconciliationService
	schedule              string
	logger                *logger.Logger
}

func New(cfg *config.Configuration, reconciliationService service.ReconciliationService, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:                  cron.New(),
		reconciliationService: reconciliationService,
		schedule:              cfg.Reconciliation.Schedule,
		logger:                logger,
	}
}

// Start registers the reconciliation job and starts the cron loop. A missing
// schedule disables in-process scheduling.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Infow("no reconciliation schedule configured, relying on external triggers")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		// Overlapping ticks are rejected by the service's run lock
		if _, err := s.reconciliationService.Run(ctx); err != nil {
			s.logger.Errorw("scheduled reconciliation run failed",
				"error", err,
			)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Infow("started reconciliation scheduler",
		"schedule", s.schedule,
	)
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
