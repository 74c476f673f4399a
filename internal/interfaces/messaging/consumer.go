// Package messaging holds the topic consumers that drive ingestion and
// invoice conversion from broker deliveries.
package messaging

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Ingester cleans and stores one raw record
type Ingester interface {
	Ingest(ctx context.Context, raw mdm.RawRecord) (*mdm.ProcessedData, error)
}

// InvoiceProcessor converts an invoice request into a standard invoice
type InvoiceProcessor interface {
	ProcessInvoiceRequest(ctx context.Context, req invoicing.InvoiceRequest) (*invoicing.StandardInvoice, error)
}

// RawDataConsumer ingests raw-data messages and republishes the result on
// the processed-data topic
type RawDataConsumer struct {
	ingest    Ingester
	publisher shared.MessagePublisher
	topic     string
	logger    *zap.Logger
}

// NewRawDataConsumer creates a consumer publishing to processedTopic
func NewRawDataConsumer(ingest Ingester, publisher shared.MessagePublisher, processedTopic string, log *zap.Logger) *RawDataConsumer {
	return &RawDataConsumer{ingest: ingest, publisher: publisher, topic: processedTopic, logger: log}
}

// Handle implements shared.MessageHandler
func (c *RawDataConsumer) Handle(ctx context.Context, msg *shared.Message) error {
	ctx = logger.Ensure(ctx, c.logger)
	log := logger.L(ctx).With(zap.String("message_id", msg.ID))

	var raw mdm.RawRecord
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		log.Error("raw record could not be decoded",
			zap.String("code", shared.ErrInvalidPayload.Code),
			zap.Error(err),
		)
		return shared.WrapDomainError(shared.ErrInvalidPayload.Code, "Raw record could not be decoded", err)
	}

	processed, err := c.ingest.Ingest(ctx, raw)
	if err != nil {
		if permanent(err) {
			log.Warn("raw record rejected",
				zap.String("entity_type", raw.EntityType),
				zap.String("tenant_id", raw.TenantID),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	data, err := json.Marshal(processed)
	if err != nil {
		return shared.WrapDomainError(shared.ErrInvalidPayload.Code, "Processed record could not be encoded", err)
	}
	if _, err := c.publisher.Publish(ctx, c.topic, data, map[string]string{
		"entityType": processed.EntityType,
		"tenantId":   processed.TenantID,
		"batchId":    processed.BatchID,
	}); err != nil {
		return err
	}

	log.Debug("processed record published",
		zap.String("entity_id", processed.EntityID.String()),
		zap.Float64("quality_score", processed.QualityScore),
	)
	return nil
}

// InvoiceRequestConsumer converts invoice-requests messages and publishes the
// resulting invoices on the invoice-data topic
type InvoiceRequestConsumer struct {
	service   InvoiceProcessor
	publisher shared.MessagePublisher
	topic     string
	logger    *zap.Logger
}

// NewInvoiceRequestConsumer creates a consumer publishing to invoiceTopic
func NewInvoiceRequestConsumer(service InvoiceProcessor, publisher shared.MessagePublisher, invoiceTopic string, log *zap.Logger) *InvoiceRequestConsumer {
	return &InvoiceRequestConsumer{service: service, publisher: publisher, topic: invoiceTopic, logger: log}
}

// Handle implements shared.MessageHandler
func (c *InvoiceRequestConsumer) Handle(ctx context.Context, msg *shared.Message) error {
	ctx = logger.Ensure(ctx, c.logger)
	log := logger.L(ctx).With(zap.String("message_id", msg.ID))

	var req invoicing.InvoiceRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Error("invoice request could not be decoded",
			zap.String("code", shared.ErrInvalidPayload.Code),
			zap.Error(err),
		)
		return shared.WrapDomainError(shared.ErrInvalidPayload.Code, "Invoice request could not be decoded", err)
	}

	invoice, err := c.service.ProcessInvoiceRequest(ctx, req)
	if err != nil && !permanent(err) {
		return err
	}
	if invoice == nil {
		log.Warn("invoice request produced no invoice",
			zap.String("business_unit_id", req.BusinessUnitID.String()),
			zap.String("ticket_token", req.TicketToken),
			zap.Error(err),
		)
		return nil
	}

	data, err := json.Marshal(invoice)
	if err != nil {
		return shared.WrapDomainError(shared.ErrInvalidPayload.Code, "Invoice could not be encoded", err)
	}
	if _, err := c.publisher.Publish(ctx, c.topic, data, map[string]string{
		"businessUnitId": req.BusinessUnitID.String(),
		"ticketToken":    req.TicketToken,
	}); err != nil {
		return err
	}

	log.Info("invoice published",
		zap.String("series", invoice.Series),
		zap.String("folio", invoice.Folio),
		zap.Int("concepts", len(invoice.Concepts)),
	)
	return nil
}

// permanent reports whether the failure is a business rejection that is
// acknowledged instead of returned. Concurrency conflicts and payload faults
// go back to the broker, which owns redelivery and dead-lettering.
func permanent(err error) bool {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return !errors.Is(err, shared.ErrConcurrencyConflict) && !errors.Is(err, shared.ErrInvalidPayload)
}
