package testutil

import (
	"context"
	"sync"

	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/cyclebill/cyclebill/internal/webhook"
)

// InMemoryWebhookPublisher captures webhook events for assertions.
type InMemoryWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.WebhookEvent
}

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

var _ webhook.Publisher = (*InMemoryWebhookPublisher)(nil)

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// Events returns the captured events in publish order.
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*types.WebhookEvent(nil), p.events...)
}

// EventsOfType returns the captured events with the given event name.
func (p *InMemoryWebhookPublisher) EventsOfType(eventName string) []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result []*types.WebhookEvent
	for _, e := range p.events {
		if e.EventName == eventName {
			result = append(result, e)
		}
	}
	return result
}

func (p *InMemoryWebhookPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
