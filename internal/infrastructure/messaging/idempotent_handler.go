package messaging

import (
	"context"
	"sync/atomic"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyMetrics counts idempotent deliveries.
type IdempotencyMetrics struct {
	Processed atomic.Int64
	Duplicate atomic.Int64
	Failed    atomic.Int64
}

// IdempotencyStats is a snapshot of IdempotencyMetrics.
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// Stats returns a snapshot of the counters.
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: m.Processed.Load(),
		Duplicate: m.Duplicate.Load(),
		Failed:    m.Failed.Load(),
	}
}

// IdempotentHandler skips messages whose ID was already handled successfully.
type IdempotentHandler struct {
	name    string
	handler shared.MessageHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotentHandlerOption configures an IdempotentHandler.
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides the TTL and enabled flag.
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = cfg
	}
}

// WithIdempotencyMetrics shares a metrics collector between handlers.
func WithIdempotencyMetrics(m *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.metrics = m
	}
}

// NewIdempotentHandler wraps handler. name scopes the stored keys so two
// consumers of the same message do not shadow each other.
func NewIdempotentHandler(name string, handler shared.MessageHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		name:    name,
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements shared.MessageHandler.
func (h *IdempotentHandler) Handle(ctx context.Context, msg *shared.Message) error {
	if !h.config.Enabled || h.store == nil || msg.ID == "" {
		return h.handler(ctx, msg)
	}

	key := h.name + ":" + msg.ID
	fields := []zap.Field{
		zap.String("consumer", h.name),
		zap.String("message_id", msg.ID),
		zap.String("topic", msg.Topic),
	}

	marked := false
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("failed to check idempotency, processing anyway", append(fields, zap.Error(err))...)
	case !isNew:
		h.metrics.Duplicate.Add(1)
		h.logger.Debug("duplicate message detected, skipping", fields...)
		return nil
	default:
		marked = true
	}

	if err := h.handler(ctx, msg); err != nil {
		h.metrics.Failed.Add(1)
		if marked {
			if relErr := h.store.Release(ctx, key); relErr != nil {
				h.logger.Warn("failed to release idempotency key", append(fields, zap.Error(relErr))...)
			}
		}
		return err
	}

	h.metrics.Processed.Add(1)
	return nil
}

// Metrics returns the handler's counters.
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}
