package mdm

import (
	"context"
	"errors"
	"fmt"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CfdiSeries is the series stamped on every generated CFDI
const CfdiSeries = "A"

// CfdiService assembles CFDI documents from the golden records of a tenant
type CfdiService struct {
	issuers   mdm.IssuerRepository
	receivers mdm.ReceiverRepository
	ingest    *IngestService
	catalog   invoicing.ProductCatalog
	folios    invoicing.FolioGenerator
	logger    *zap.Logger
}

// NewCfdiService creates a new CfdiService
func NewCfdiService(
	issuers mdm.IssuerRepository,
	receivers mdm.ReceiverRepository,
	ingest *IngestService,
	catalog invoicing.ProductCatalog,
	folios invoicing.FolioGenerator,
	log *zap.Logger,
) *CfdiService {
	return &CfdiService{
		issuers:   issuers,
		receivers: receivers,
		ingest:    ingest,
		catalog:   catalog,
		folios:    folios,
		logger:    log,
	}
}

// GenerateCfdi builds the CFDI for req. The tenant's first issuer emits it;
// the receiver is created from the request when it is not on file yet.
func (s *CfdiService) GenerateCfdi(ctx context.Context, tenantID string, req invoicing.CfdiRequest) (*invoicing.CfdiDocument, error) {
	ctx = logger.Ensure(ctx, s.logger)
	ctx, span := telemetry.StartSpan(ctx, "mdm.generate_cfdi", attribute.String("mdm.tenant_id", tenantID))
	defer span.End()

	issuer, err := s.issuers.FindFirstByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = mdm.ErrIssuerNotFound
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	receiverRFC, receiverName, err := s.resolveReceiver(ctx, tenantID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	products, err := s.catalog.ProductsForTicket(ctx, req.TicketToken)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("resolve ticket products: %w", err)
	}

	doc := &invoicing.CfdiDocument{
		IssuerRFC:     issuer.RFC,
		IssuerName:    issuer.BusinessName,
		ReceiverRFC:   receiverRFC,
		ReceiverName:  receiverName,
		CfdiUsage:     req.CfdiUsage,
		PaymentMethod: invoicing.PaymentMethodPUE,
		PaymentForm:   req.PaymentForm,
		Currency:      invoicing.CurrencyMXN,
		Series:        CfdiSeries,
		Folio:         s.folios.Next(),
		Concepts:      make([]invoicing.CfdiConcept, 0, len(products)),
	}
	for _, p := range products {
		doc.Concepts = append(doc.Concepts, invoicing.ConceptFromProduct(p))
	}

	logger.L(ctx).Info("cfdi generated",
		zap.String("tenant_id", tenantID),
		zap.String("issuer_rfc", doc.IssuerRFC),
		zap.String("receiver_rfc", doc.ReceiverRFC),
		zap.String("folio", doc.Folio),
		zap.Int("concepts", len(doc.Concepts)),
	)
	return doc, nil
}

func (s *CfdiService) resolveReceiver(ctx context.Context, tenantID string, req invoicing.CfdiRequest) (rfc, name string, err error) {
	existing, err := s.receivers.FindByTenantAndRFC(ctx, tenantID, mdm.NormalizeRFC(req.CustomerRFC))
	if err == nil {
		return existing.RFC, existing.BusinessName, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return "", "", err
	}

	cleaned, warnings, err := s.ingest.normalizer.Clean(mdm.EntityTypeReceiver, map[string]string{
		mdm.FieldRFC:          req.CustomerRFC,
		mdm.FieldBusinessName: req.Name,
		mdm.FieldEmail:        req.Email,
		mdm.FieldPostalCode:   req.PostalCode,
		mdm.FieldCfdiUsage:    req.CfdiUsage,
	})
	if err != nil {
		return "", "", err
	}
	s.ingest.logWarnings(ctx, mdm.EntityTypeReceiver, tenantID, warnings)

	if _, err := s.ingest.Upsert(ctx, mdm.EntityTypeReceiver, tenantID, cleaned); err != nil {
		return "", "", err
	}
	return cleaned.Get(mdm.FieldRFC), cleaned.Get(mdm.FieldBusinessName), nil
}
