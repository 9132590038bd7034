package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher sends messages onto a topic. The engine publishes serialized
// webhook events here; delivery to the configured endpoint happens in the
// consumer, never inline with a reconciliation pass.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Close() error
}

// Subscriber consumes messages from a topic
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// PubSub is the full bus handle the in-memory implementation provides
type PubSub interface {
	Publisher
	Subscriber
}
