package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// httpProvisioner calls the hosting backend's REST API with retries.
type httpProvisioner struct {
	client  *retryablehttp.Client
	baseURL string
	apiKey  string
	logger  *logger.Logger
}

// NewHTTPProvisioner builds a provisioner over the configured backend.
func NewHTTPProvisioner(cfg *config.Configuration, logger *logger.Logger) Provisioner {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	return &httpProvisioner{
		client:  client,
		baseURL: cfg.Provisioning.BaseURL,
		apiKey:  cfg.Provisioning.APIKey,
		logger:  logger,
	}
}

func (p *httpProvisioner) Suspend(ctx context.Context, sub *subscription.Subscription) error {
	return p.post(ctx, fmt.Sprintf("/services/%s/suspend", sub.ID), map[string]any{
		"subscription_id": sub.ID,
		"order_id":        sub.OrderID,
	})
}

func (p *httpProvisioner) Terminate(ctx context.Context, sub *subscription.Subscription) error {
	return p.post(ctx, fmt.Sprintf("/services/%s/terminate", sub.ID), map[string]any{
		"subscription_id": sub.ID,
		"order_id":        sub.OrderID,
	})
}

func (p *httpProvisioner) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	return p.post(ctx, fmt.Sprintf("/invoices/%s/pay", invoiceID), map[string]any{
		"invoice_id": invoiceID,
	})
}

func (p *httpProvisioner) post(ctx context.Context, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to marshal provisioning payload").
			Mark(ierr.ErrSystem)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return ierr.WithError(err).
			WithHintf("failed to build provisioning request for %s", path).
			Mark(ierr.ErrSystem)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("provisioning call %s failed", path).
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return ierr.NewError("provisioning backend returned an error").
			WithHintf("call %s returned status %d", path, resp.StatusCode).
			WithReportableDetails(map[string]any{
				"path":   path,
				"status": resp.StatusCode,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	p.logger.Debugw("provisioning call succeeded",
		"path", path,
		"status", resp.StatusCode,
	)
	return nil
}
