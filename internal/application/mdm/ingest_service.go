// Package mdm holds the golden record use cases: ingesting raw records,
// publishing them for asynchronous ingestion and assembling CFDI documents.
package mdm

import (
	"context"
	"errors"
	"fmt"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// IngestService cleans, stores and scores raw records.
type IngestService struct {
	normalizer *mdm.Normalizer
	uow        mdm.UnitOfWork
	locker     shared.Locker
	logger     *zap.Logger
}

// NewIngestService creates an IngestService. locker may be nil.
func NewIngestService(uow mdm.UnitOfWork, locker shared.Locker, log *zap.Logger) *IngestService {
	return &IngestService{
		normalizer: mdm.NewNormalizer(),
		uow:        uow,
		locker:     locker,
		logger:     log,
	}
}

// Ingest runs one raw record through the pipeline. An unknown entity type is
// the only hard failure besides storage errors.
func (s *IngestService) Ingest(ctx context.Context, raw mdm.RawRecord) (*mdm.ProcessedData, error) {
	ctx = logger.Ensure(ctx, s.logger)
	ctx, span := telemetry.StartSpan(ctx, "mdm.ingest",
		attribute.String("mdm.entity_type", raw.EntityType),
		attribute.String("mdm.tenant_id", raw.TenantID),
		attribute.String("mdm.batch_id", raw.BatchID),
	)
	defer span.End()

	entityType, err := mdm.ParseEntityType(raw.EntityType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	cleaned, warnings, err := s.normalizer.Clean(entityType, raw.Data)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logWarnings(ctx, entityType, raw.TenantID, warnings)

	entityID, err := s.Upsert(ctx, entityType, raw.TenantID, cleaned)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	score := mdm.QualityScore(cleaned, entityType)
	span.SetAttributes(attribute.Float64("mdm.quality_score", score))

	logger.L(ctx).Info("record ingested",
		zap.String("entity_type", entityType.String()),
		zap.String("tenant_id", raw.TenantID),
		zap.String("entity_id", entityID.String()),
		zap.String("batch_id", raw.BatchID),
		zap.Float64("quality_score", score),
	)
	return mdm.NewProcessedData(entityType, raw.TenantID, entityID, cleaned, score, raw.BatchID), nil
}

// Upsert stores cleaned data as a golden record and returns its ID. The
// find-then-write runs in one transaction under a per-key lock when a
// locker is configured.
func (s *IngestService) Upsert(ctx context.Context, entityType mdm.EntityType, tenantID string, cleaned mdm.CleanedRecord) (uuid.UUID, error) {
	ctx = logger.Ensure(ctx, s.logger)
	release := s.lock(ctx, entityType, tenantID, naturalKey(entityType, cleaned))
	defer release()

	var id uuid.UUID
	err := s.uow.Do(ctx, func(tx mdm.Repositories) error {
		var err error
		switch entityType {
		case mdm.EntityTypeIssuer:
			id, err = upsertIssuer(ctx, tx.Issuers, tenantID, cleaned)
		case mdm.EntityTypeReceiver:
			id, err = upsertReceiver(ctx, tx.Receivers, tenantID, cleaned)
		case mdm.EntityTypeProduct:
			var warnings []mdm.FieldWarning
			id, warnings, err = upsertProduct(ctx, tx.Products, tenantID, cleaned)
			s.logWarnings(ctx, entityType, tenantID, warnings)
		default:
			err = mdm.ErrUnknownEntityType
		}
		return err
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert %s: %w", entityType, err)
	}
	return id, nil
}

func naturalKey(entityType mdm.EntityType, cleaned mdm.CleanedRecord) string {
	if entityType == mdm.EntityTypeProduct {
		return cleaned.Get(mdm.FieldInternalCode)
	}
	return cleaned.Get(mdm.FieldRFC)
}

// lock takes the per-key lock. Failing to obtain it falls back to the
// unlocked path.
func (s *IngestService) lock(ctx context.Context, entityType mdm.EntityType, tenantID, key string) func() {
	noop := func() {}
	if s.locker == nil || key == "" {
		return noop
	}

	lockKey := fmt.Sprintf("mdm:lock:%s:%s:%s", entityType, tenantID, key)
	release, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		logger.L(ctx).Warn("upsert lock not acquired, continuing unlocked",
			zap.String("lock_key", lockKey),
			zap.Error(err),
		)
		return noop
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.L(ctx).Warn("failed to release upsert lock", zap.String("lock_key", lockKey), zap.Error(err))
		}
	}
}

func (s *IngestService) logWarnings(ctx context.Context, entityType mdm.EntityType, tenantID string, warnings []mdm.FieldWarning) {
	for _, w := range warnings {
		logger.L(ctx).Warn("field value kept despite validation failure",
			zap.String("entity_type", entityType.String()),
			zap.String("tenant_id", tenantID),
			zap.String("field", w.Field),
			zap.String("value", w.Value),
			zap.String("reason", w.Reason),
		)
	}
}

func upsertIssuer(ctx context.Context, repo mdm.IssuerRepository, tenantID string, cleaned mdm.CleanedRecord) (uuid.UUID, error) {
	if rfc := cleaned.Get(mdm.FieldRFC); rfc != "" {
		existing, err := repo.FindByTenantAndRFC(ctx, tenantID, rfc)
		switch {
		case err == nil:
			existing.Apply(cleaned)
			return existing.ID, repo.Save(ctx, existing)
		case !errors.Is(err, shared.ErrNotFound):
			return uuid.Nil, err
		}
	}

	issuer := mdm.NewIssuer(tenantID, cleaned)
	return issuer.ID, repo.Save(ctx, issuer)
}

func upsertReceiver(ctx context.Context, repo mdm.ReceiverRepository, tenantID string, cleaned mdm.CleanedRecord) (uuid.UUID, error) {
	if rfc := cleaned.Get(mdm.FieldRFC); rfc != "" {
		existing, err := repo.FindByTenantAndRFC(ctx, tenantID, rfc)
		switch {
		case err == nil:
			existing.Apply(cleaned)
			return existing.ID, repo.Save(ctx, existing)
		case !errors.Is(err, shared.ErrNotFound):
			return uuid.Nil, err
		}
	}

	receiver := mdm.NewReceiver(tenantID, cleaned)
	return receiver.ID, repo.Save(ctx, receiver)
}

func upsertProduct(ctx context.Context, repo mdm.ProductRepository, tenantID string, cleaned mdm.CleanedRecord) (uuid.UUID, []mdm.FieldWarning, error) {
	if code := cleaned.Get(mdm.FieldInternalCode); code != "" {
		existing, err := repo.FindByTenantAndInternalCode(ctx, tenantID, code)
		switch {
		case err == nil:
			warnings := existing.Apply(cleaned)
			return existing.ID, warnings, repo.Save(ctx, existing)
		case !errors.Is(err, shared.ErrNotFound):
			return uuid.Nil, nil, err
		}
	}

	product, warnings := mdm.NewProduct(tenantID, cleaned)
	return product.ID, warnings, repo.Save(ctx, product)
}
