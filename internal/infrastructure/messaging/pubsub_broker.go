package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultAckDeadline = 20 * time.Second

// PubSubBroker publishes and receives through Google Cloud Pub/Sub.
type PubSubBroker struct {
	client       *pubsub.Client
	logger       *zap.Logger
	createTopics bool
	workers      int
	// publishTimeout bounds the wait for the server ack; zero waits on ctx only
	publishTimeout time.Duration

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubBroker connects to the configured project. Explicit credentials
// JSON wins over application default credentials.
func NewPubSubBroker(ctx context.Context, cfg *config.MessagingConfig, logger *zap.Logger, opts ...option.ClientOption) (*PubSubBroker, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("messaging.project_id is required for the pubsub driver")
	}
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	logger.Info("pubsub client ready", zap.String("project_id", cfg.ProjectID))
	b := NewPubSubBrokerWithClient(client, logger, cfg.CreateTopics, cfg.Workers)
	b.publishTimeout = cfg.PublishTimeout
	return b, nil
}

// NewPubSubBrokerWithClient wraps an existing client.
func NewPubSubBrokerWithClient(client *pubsub.Client, logger *zap.Logger, createTopics bool, workers int) *PubSubBroker {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &PubSubBroker{
		client:       client,
		logger:       logger,
		createTopics: createTopics,
		workers:      workers,
		topics:       make(map[string]*pubsub.Topic),
	}
}

func (b *PubSubBroker) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	if name == "" {
		return nil, errors.New("topic is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[name]; ok {
		return t, nil
	}

	t := b.client.Topic(name)
	if b.createTopics {
		exists, err := t.Exists(ctx)
		if err != nil {
			return nil, fmt.Errorf("check topic %q: %w", name, err)
		}
		if !exists {
			t, err = b.client.CreateTopic(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("create topic %q: %w", name, err)
			}
			b.logger.Info("pubsub topic created", zap.String("topic", name))
		}
	}
	b.topics[name] = t
	return t, nil
}

// EnsureSubscription returns the subscription, creating it when topic
// creation is enabled.
func (b *PubSubBroker) EnsureSubscription(ctx context.Context, subscription, topic string) error {
	_, err := b.subscription(ctx, subscription, topic)
	return err
}

func (b *PubSubBroker) subscription(ctx context.Context, name, topic string) (*pubsub.Subscription, error) {
	if name == "" {
		return nil, errors.New("subscription name is required")
	}

	sub := b.client.Subscription(name)
	if !b.createTopics {
		return sub, nil
	}

	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription %q: %w", name, err)
	}
	if exists {
		return sub, nil
	}

	t, err := b.topic(ctx, topic)
	if err != nil {
		return nil, err
	}
	sub, err = b.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:       t,
		AckDeadline: defaultAckDeadline,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription %q: %w", name, err)
	}
	b.logger.Info("pubsub subscription created",
		zap.String("subscription", name),
		zap.String("topic", topic),
	)
	return sub, nil
}

// Publish sends data and waits for the server-assigned message ID.
func (b *PubSubBroker) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if b.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.publishTimeout)
		defer cancel()
	}

	t, err := b.topic(ctx, topic)
	if err != nil {
		return "", err
	}

	id, err := t.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %q: %w", topic, err)
	}
	return id, nil
}

// Subscribe receives until ctx is cancelled. A handler error nacks the
// message so Pub/Sub redelivers it.
func (b *PubSubBroker) Subscribe(ctx context.Context, subscription, topic string, handler shared.MessageHandler) error {
	sub, err := b.subscription(ctx, subscription, topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.NumGoroutines = b.workers

	b.logger.Info("subscription started",
		zap.String("subscription", subscription),
		zap.String("topic", topic),
		zap.Int("workers", b.workers),
	)

	err = sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		msg := &shared.Message{
			ID:          m.ID,
			Topic:       topic,
			Data:        m.Data,
			Attributes:  m.Attributes,
			PublishedAt: m.PublishTime,
		}
		if err := b.dispatch(ctx, handler, msg); err != nil {
			b.logger.Warn("message handler failed, nacking",
				zap.String("subscription", subscription),
				zap.String("message_id", m.ID),
				zap.Error(err),
			)
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil {
		return fmt.Errorf("receive on %q: %w", subscription, err)
	}
	return ctx.Err()
}

func (b *PubSubBroker) dispatch(ctx context.Context, handler shared.MessageHandler, msg *shared.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message handler panicked",
				zap.String("topic", msg.Topic),
				zap.String("message_id", msg.ID),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, msg)
}

// Close flushes pending publishes and closes the client.
func (b *PubSubBroker) Close() error {
	b.mu.Lock()
	for _, t := range b.topics {
		t.Stop()
	}
	b.topics = make(map[string]*pubsub.Topic)
	b.mu.Unlock()

	return b.client.Close()
}

var _ shared.Broker = (*PubSubBroker)(nil)
