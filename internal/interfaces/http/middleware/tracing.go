// Package middleware provides HTTP middleware for the MDM API.
package middleware

import (
	"net/http"

	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxRequestIDLength bounds client supplied request IDs
	MaxRequestIDLength = 128
	// MaxTenantIDLength bounds tenant path parameters copied into spans and logs
	MaxTenantIDLength = 64
)

// TenantParam is the route parameter that carries the tenant
const TenantParam = "tenantId"

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "mdm",
		Enabled:     true,
	}
}

// TracingWithConfig returns the otelgin server middleware. Span names follow
// "HTTP METHOD route", e.g. "POST /api/v1/mdm/issuers/:tenantId".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TenantContext copies the tenantId path parameter into the request
// context and tags the active span with tenant_id and request_id. Register
// it after Tracing.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		if id := c.GetString(RequestIDKey); id != "" && span.IsRecording() {
			span.SetAttributes(attribute.String("request_id", id))
		}

		tenantID := c.Param(TenantParam)
		if tenantID != "" && len(tenantID) <= MaxTenantIDLength {
			if span.IsRecording() {
				span.SetAttributes(attribute.String("tenant_id", tenantID))
			}
			c.Request = c.Request.WithContext(logger.WithTenantID(ctx, tenantID))
		}
		c.Next()
	}
}

// SpanErrorMarker marks the span failed for 4xx and 5xx responses. Place it
// after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		var msg string
		switch {
		case status >= http.StatusInternalServerError:
			msg = "Internal Server Error"
		case status == http.StatusNotFound:
			msg = "Not Found"
		case status == http.StatusConflict:
			msg = "Conflict"
		default:
			msg = "Client Error"
		}
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
