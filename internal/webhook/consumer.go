package webhook

import (
	"bytes"
	"context"
	"net/http"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/pubsub"
	"github.com/hashicorp/go-retryablehttp"
)

// Consumer drains the webhook topic and delivers each event to the
// configured HTTP endpoint. Delivery is at-least-once; a failed POST is
// logged and the message acked anyway, since the engine promises no
// exactly-once semantics to subscribers.
type Consumer struct {
	pubSub pubsub.PubSub
	client *retryablehttp.Client
	config *config.WebhookConfig
	logger *logger.Logger
}

func NewConsumer(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) *Consumer {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	return &Consumer{
		pubSub: pubSub,
		client: client,
		config: &cfg.Webhook,
		logger: logger,
	}
}

// Start consumes webhook events until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.config.Enabled || c.config.Endpoint == "" {
		c.logger.Infow("webhook delivery disabled, events will not be forwarded")
		return nil
	}

	messages, err := c.pubSub.Subscribe(ctx, c.config.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.deliver(ctx, msg.UUID, msg.Payload)
			msg.Ack()
		}
	}()

	return nil
}

func (c *Consumer) deliver(ctx context.Context, id string, payload []byte) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		c.logger.Errorw("failed to build webhook delivery request",
			"error", err,
			"message_id", id,
		)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Errorw("webhook delivery failed",
			"error", err,
			"message_id", id,
			"endpoint", c.config.Endpoint,
		)
		return
	}
	defer resp.Body.Close()

	c.logger.Debugw("delivered webhook event",
		"message_id", id,
		"status", resp.StatusCode,
	)
}
