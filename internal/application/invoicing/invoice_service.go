package invoicing

import (
	"context"
	"errors"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// InvoiceService turns invoice requests into standard invoices
type InvoiceService struct {
	units       invoicing.BusinessUnitRepository
	tickets     invoicing.TicketProvider
	transformer *invoicing.Transformer
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	units invoicing.BusinessUnitRepository,
	tickets invoicing.TicketProvider,
	transformer *invoicing.Transformer,
	log *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		units:       units,
		tickets:     tickets,
		transformer: transformer,
		logger:      log,
	}
}

// ProcessInvoiceRequest resolves the business unit and ticket of req and maps
// the ticket items onto invoice concepts. Unresolvable requests return
// ErrBusinessUnitNotFound or ErrTicketNotFound.
func (s *InvoiceService) ProcessInvoiceRequest(ctx context.Context, req invoicing.InvoiceRequest) (*invoicing.StandardInvoice, error) {
	ctx = logger.Ensure(ctx, s.logger)
	ctx, span := telemetry.StartSpan(ctx, "invoicing.process_request",
		attribute.String("invoicing.business_unit_id", req.BusinessUnitID.String()),
		attribute.String("invoicing.ticket_token", req.TicketToken),
	)
	defer span.End()
	log := logger.L(ctx).With(
		zap.String("business_unit_id", req.BusinessUnitID.String()),
		zap.String("ticket_token", req.TicketToken),
	)

	bu, err := s.units.FindByID(ctx, req.BusinessUnitID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = invoicing.ErrBusinessUnitNotFound
		}
		log.Warn("invoice request rejected", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	payload, err := s.tickets.GetTicketPayload(ctx, req.TicketToken, bu.ID)
	if err != nil {
		log.Warn("invoice request rejected", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoice, warnings, err := s.transformer.Transform(req, bu, payload, bu.MappingSet())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("ticket item mapping skipped",
			zap.Int("item", w.Item),
			zap.String("source_field", w.Source),
			zap.String("standard_field", w.Standard),
			zap.String("reason", w.Reason),
		)
	}

	span.SetAttributes(attribute.Int("invoicing.concepts", len(invoice.Concepts)))
	log.Info("invoice request processed",
		zap.String("folio", invoice.Folio),
		zap.Int("concepts", len(invoice.Concepts)),
	)
	return invoice, nil
}
