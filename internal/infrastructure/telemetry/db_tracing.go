package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures otelgorm instrumentation.
type DBTracingConfig struct {
	Enabled          bool
	DBSystem         string
	SlowQueryThresh  time.Duration
	IncludeVariables bool
	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider
}

// DefaultDBTracingConfig hides query variables and flags queries over 200ms.
func DefaultDBTracingConfig(system string) DBTracingConfig {
	return DBTracingConfig{
		Enabled:         true,
		DBSystem:        system,
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

type startTimeKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus callbacks that tag
// slow and failed statements on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, startTimeKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotate(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("mdm_trace:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("mdm_trace:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("mdm_trace:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("mdm_trace:before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("mdm_trace:before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("mdm_trace:before_raw", before) },
		func() error { return cb.Create().After("gorm:create").Register("mdm_trace:after_create", after) },
		func() error { return cb.Query().After("gorm:query").Register("mdm_trace:after_query", after) },
		func() error { return cb.Update().After("gorm:update").Register("mdm_trace:after_update", after) },
		func() error { return cb.Delete().After("gorm:delete").Register("mdm_trace:after_delete", after) },
		func() error { return cb.Row().After("gorm:row").Register("mdm_trace:after_row", after) },
		func() error { return cb.Raw().After("gorm:raw").Register("mdm_trace:after_raw", after) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotate(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}
	if start, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
