package messaging

import (
	"context"
	"fmt"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	broker "github.com/flechaamarilla/mdm/internal/infrastructure/messaging"
	"github.com/flechaamarilla/mdm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Route binds a handler to a subscription on a topic
type Route struct {
	Name         string
	Subscription string
	Topic        string
	Handler      shared.MessageHandler
}

// Runner subscribes every route and keeps the subscriptions alive until
// the context is cancelled
type Runner struct {
	broker broker.Broker
	store  shared.IdempotencyStore
	idem   shared.IdempotencyConfig
	routes []Route
	logger *zap.Logger
}

// NewRunner creates a runner. store may be nil to disable redelivery dedupe.
func NewRunner(b broker.Broker, store shared.IdempotencyStore, idem shared.IdempotencyConfig, log *zap.Logger) *Runner {
	return &Runner{broker: b, store: store, idem: idem, logger: log}
}

// Add registers a route
func (r *Runner) Add(route Route) *Runner {
	r.routes = append(r.routes, route)
	return r
}

// Routes returns the registered routes
func (r *Runner) Routes() []Route {
	return r.routes
}

// EnsureSubscriptions creates every subscription ahead of the first publish
func (r *Runner) EnsureSubscriptions(ctx context.Context) error {
	for _, route := range r.routes {
		if err := r.broker.EnsureSubscription(ctx, route.Subscription, route.Topic); err != nil {
			return fmt.Errorf("ensure subscription %s: %w", route.Subscription, err)
		}
	}
	return nil
}

// Run blocks until ctx is cancelled or a subscription fails
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, route := range r.routes {
		handler := broker.NewIdempotentHandler(route.Name, traced(route, r.logger), r.store, r.logger,
			broker.WithIdempotencyConfig(r.idem),
		)
		g.Go(func() error {
			r.logger.Info("consumer started",
				zap.String("consumer", route.Name),
				zap.String("subscription", route.Subscription),
				zap.String("topic", route.Topic),
			)
			return r.broker.Subscribe(ctx, route.Subscription, route.Topic, handler.Handle)
		})
	}
	return g.Wait()
}

// traced runs the handler inside a consumer span with a message-scoped logger
func traced(route Route, log *zap.Logger) shared.MessageHandler {
	return func(ctx context.Context, msg *shared.Message) error {
		ctx, span := telemetry.StartConsumerSpan(ctx, msg.Topic, msg.ID)
		defer span.End()

		ctx = logger.WithContext(ctx, log.With(
			zap.String("consumer", route.Name),
			zap.String("topic", msg.Topic),
		))
		if tenant := msg.Attributes["tenantId"]; tenant != "" {
			ctx = logger.WithTenantID(ctx, tenant)
		}

		err := route.Handler(ctx, msg)
		telemetry.RecordError(span, err)
		return err
	}
}
