package shared

import (
	"context"
	"time"
)

// Message is a unit of delivery on a broker topic
type Message struct {
	ID          string
	Topic       string
	Data        []byte
	Attributes  map[string]string
	PublishedAt time.Time
}

// MessageHandler processes one delivered message. Returning an error asks the
// broker to redeliver when the transport supports it.
type MessageHandler func(ctx context.Context, msg *Message) error

// MessagePublisher publishes raw payloads to a named topic and returns the
// broker-assigned message ID
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// MessageSubscriber receives messages from a subscription bound to a topic.
// Subscribe blocks until ctx is cancelled or the broker is closed.
type MessageSubscriber interface {
	Subscribe(ctx context.Context, subscription, topic string, handler MessageHandler) error
}

// Broker combines publisher and subscriber capabilities
type Broker interface {
	MessagePublisher
	MessageSubscriber
	Close() error
}
