package messaging

import (
	"context"
	"fmt"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Broker is a shared.Broker that can pre-create subscriptions, so messages
// published before the first Subscribe call are retained.
type Broker interface {
	shared.Broker
	EnsureSubscription(ctx context.Context, subscription, topic string) error
}

// New builds the broker selected by cfg.Driver.
func New(ctx context.Context, cfg *config.MessagingConfig, logger *zap.Logger) (Broker, error) {
	switch cfg.Driver {
	case "pubsub":
		b, err := NewPubSubBroker(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory", "":
		return NewMemoryBroker(logger, WithWorkers(cfg.Workers)), nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver %q", cfg.Driver)
	}
}
