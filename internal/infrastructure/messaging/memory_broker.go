// Package messaging provides the broker implementations behind shared.Broker:
// an in-process broker for single-instance deployments and tests, and a
// Google Cloud Pub/Sub broker for production.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBrokerClosed is returned by operations on a closed broker.
var ErrBrokerClosed = errors.New("broker closed")

const (
	defaultWorkers       = 4
	defaultBufferSize    = 256
	defaultMaxDeliveries = 3
)

type delivery struct {
	msg     *shared.Message
	attempt int
}

type memorySubscription struct {
	name  string
	topic string
	queue chan delivery
}

// MemoryBroker is an in-process broker. A subscription buffers every message
// published to its topic after the subscription was created; each Subscribe
// call drains it with a pool of worker goroutines.
type MemoryBroker struct {
	logger        *zap.Logger
	workers       int
	bufferSize    int
	maxDeliveries int

	mu   sync.RWMutex
	subs map[string]*memorySubscription

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// MemoryOption configures a MemoryBroker.
type MemoryOption func(*MemoryBroker)

// WithWorkers sets the number of worker goroutines per Subscribe call.
func WithWorkers(n int) MemoryOption {
	return func(b *MemoryBroker) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithBufferSize sets the queue capacity of each subscription.
func WithBufferSize(n int) MemoryOption {
	return func(b *MemoryBroker) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithMaxDeliveries caps how many times a failing message is handed to a handler.
func WithMaxDeliveries(n int) MemoryOption {
	return func(b *MemoryBroker) {
		if n > 0 {
			b.maxDeliveries = n
		}
	}
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker(logger *zap.Logger, opts ...MemoryOption) *MemoryBroker {
	b := &MemoryBroker{
		logger:        logger,
		workers:       defaultWorkers,
		bufferSize:    defaultBufferSize,
		maxDeliveries: defaultMaxDeliveries,
		subs:          make(map[string]*memorySubscription),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EnsureSubscription creates the subscription if it does not exist yet.
func (b *MemoryBroker) EnsureSubscription(_ context.Context, subscription, topic string) error {
	_, err := b.subscription(subscription, topic)
	return err
}

func (b *MemoryBroker) subscription(name, topic string) (*memorySubscription, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[name]; ok {
		if sub.topic != topic {
			return nil, fmt.Errorf("subscription %q is bound to topic %q", name, sub.topic)
		}
		return sub, nil
	}
	sub := &memorySubscription{
		name:  name,
		topic: topic,
		queue: make(chan delivery, b.bufferSize),
	}
	b.subs[name] = sub
	return sub, nil
}

// Publish fans the message out to every subscription bound to topic. It
// blocks while a subscription queue is full.
func (b *MemoryBroker) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if b.closed.Load() {
		return "", ErrBrokerClosed
	}

	msg := &shared.Message{
		ID:          uuid.NewString(),
		Topic:       topic,
		Data:        data,
		Attributes:  attrs,
		PublishedAt: time.Now(),
	}

	b.mu.RLock()
	targets := make([]*memorySubscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == topic {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.queue <- delivery{msg: msg, attempt: 1}:
		case <-ctx.Done():
			return "", ctx.Err()
		case <-b.done:
			return "", ErrBrokerClosed
		}
	}

	b.logger.Debug("message published",
		zap.String("topic", topic),
		zap.String("message_id", msg.ID),
		zap.Int("subscriptions", len(targets)),
	)
	return msg.ID, nil
}

// Subscribe drains the subscription until ctx is cancelled or the broker is
// closed. It returns nil on close and ctx.Err() on cancellation.
func (b *MemoryBroker) Subscribe(ctx context.Context, subscription, topic string, handler shared.MessageHandler) error {
	sub, err := b.subscription(subscription, topic)
	if err != nil {
		return err
	}

	b.logger.Info("subscription started",
		zap.String("subscription", subscription),
		zap.String("topic", topic),
		zap.Int("workers", b.workers),
	)

	var workers sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		workers.Add(1)
		b.wg.Add(1)
		go func() {
			defer workers.Done()
			defer b.wg.Done()
			b.work(ctx, sub, handler)
		}()
	}
	workers.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (b *MemoryBroker) work(ctx context.Context, sub *memorySubscription, handler shared.MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case d := <-sub.queue:
			b.deliver(ctx, sub, handler, d)
		}
	}
}

func (b *MemoryBroker) deliver(ctx context.Context, sub *memorySubscription, handler shared.MessageHandler, d delivery) {
	err := b.dispatch(ctx, handler, d.msg)
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.String("subscription", sub.name),
		zap.String("message_id", d.msg.ID),
		zap.Int("attempt", d.attempt),
		zap.Error(err),
	}
	if d.attempt >= b.maxDeliveries {
		b.logger.Error("message dropped after max deliveries", fields...)
		return
	}

	select {
	case sub.queue <- delivery{msg: d.msg, attempt: d.attempt + 1}:
		b.logger.Warn("message handler failed, redelivering", fields...)
	default:
		b.logger.Error("message dropped, subscription queue full", fields...)
	}
}

// dispatch runs the handler and turns a panic into an error.
func (b *MemoryBroker) dispatch(ctx context.Context, handler shared.MessageHandler, msg *shared.Message) (err error) {
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

// Close stops all workers after their in-flight handlers return.
func (b *MemoryBroker) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.done)
	})
	b.wg.Wait()
	b.logger.Info("memory broker stopped")
	return nil
}

var _ shared.Broker = (*MemoryBroker)(nil)
