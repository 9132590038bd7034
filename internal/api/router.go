package api

import (
	"net/http"

	"github.com/cyclebill/cyclebill/internal/api/cron"
	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/gin-gonic/gin"
)

// Handlers holds the route handlers wired by the router
type Handlers struct {
	Reconciliation *cron.ReconciliationHandler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cronGroup := router.Group("/cron", apiKeyMiddleware(cfg, logger))
	{
		reconciliation := cronGroup.Group("/reconciliation")
		reconciliation.POST("/run", handlers.Reconciliation.Run)
		reconciliation.POST("/expiring", handlers.Reconciliation.RunExpiring)
		reconciliation.POST("/renewals", handlers.Reconciliation.RunRenewals)
		reconciliation.POST("/upgrades", handlers.Reconciliation.RunUpgrades)
	}

	return router
}

// apiKeyMiddleware guards the cron endpoints. An empty configured key
// disables the check, which is only sensible for local development.
func apiKeyMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Server.APIKey == "" {
			c.Next()
			return
		}

		if c.GetHeader("x-api-key") != cfg.Server.APIKey {
			logger.Warnw("rejected cron request with invalid api key",
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
