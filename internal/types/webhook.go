package types

import (
	"encoding/json"
	"time"
)

// Webhook event names published on the event bus. Downstream subscribers are
// never awaited by the engine.
const (
	WebhookEventInvoiceCreated        = "invoice.created"
	WebhookEventSubscriptionSuspended = "subscription.suspended"
	WebhookEventSubscriptionCancelled = "subscription.cancelled"
)

// WebhookEvent is the envelope published for every domain event.
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewWebhookEvent builds an event envelope, marshalling the payload. A
// payload that cannot be marshalled yields an empty payload rather than an
// error; event publication is best-effort.
func NewWebhookEvent(eventName string, payload any, now time.Time) *WebhookEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}
	return &WebhookEvent{
		ID:        GenerateUUIDWithPrefix(UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		Payload:   raw,
		Timestamp: now.UTC(),
	}
}
