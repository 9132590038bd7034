package cron

import (
	"net/http"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/service"
	"github.com/gin-gonic/gin"
)

// ReconciliationHandler exposes the reconciliation job over HTTP so an
// external scheduler can trigger it per tick.
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *logger.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(
	reconciliationService service.ReconciliationService,
	logger *logger.Logger,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// Run executes a full reconciliation run
func (h *ReconciliationHandler) Run(c *gin.Context) {
	h.logger.Infow("starting reconciliation cron job")

	summary, err := h.reconciliationService.Run(c.Request.Context())
	if err != nil {
		h.logger.Errorw("reconciliation run failed",
			"error", err)
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Infow("completed reconciliation cron job")
	c.JSON(http.StatusOK, summary)
}

// RunExpiring executes only the subscription lifecycle pass
func (h *ReconciliationHandler) RunExpiring(c *gin.Context) {
	summary, err := h.reconciliationService.RunExpiring(c.Request.Context())
	if err != nil {
		h.logger.Errorw("expiring pass failed",
			"error", err)
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RunRenewals executes only the renewal invoice pass
func (h *ReconciliationHandler) RunRenewals(c *gin.Context) {
	summary, err := h.reconciliationService.RunRenewals(c.Request.Context())
	if err != nil {
		h.logger.Errorw("renewal pass failed",
			"error", err)
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RunUpgrades executes only the upgrade settlement pass
func (h *ReconciliationHandler) RunUpgrades(c *gin.Context) {
	summary, err := h.reconciliationService.RunUpgrades(c.Request.Context())
	if err != nil {
		h.logger.Errorw("upgrade settlement pass failed",
			"error", err)
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
