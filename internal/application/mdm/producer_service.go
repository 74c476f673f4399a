package mdm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 8

// Message attributes set on raw-data publications
const (
	AttrEntityType = "entityType"
	AttrTenantID   = "tenantId"
	AttrBatchID    = "batchId"
)

// RecordFailure reports one record of a batch that could not be published
type RecordFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchResult summarises a batch submission
type BatchResult struct {
	BatchID   string          `json:"batchId"`
	Published int             `json:"published"`
	Failures  []RecordFailure `json:"failures"`
}

// ProducerService publishes raw records on the raw-data topic for
// asynchronous ingestion
type ProducerService struct {
	publisher   shared.MessagePublisher
	topic       string
	concurrency int
	logger      *zap.Logger
}

// NewProducerService creates a ProducerService publishing to topic
func NewProducerService(publisher shared.MessagePublisher, topic string, log *zap.Logger) *ProducerService {
	return &ProducerService{
		publisher:   publisher,
		topic:       topic,
		concurrency: defaultBatchConcurrency,
		logger:      log,
	}
}

// SubmitIssuer publishes issuer data and returns its batch ID
func (s *ProducerService) SubmitIssuer(ctx context.Context, tenantID string, data map[string]string) (string, error) {
	return s.submit(ctx, mdm.EntityTypeIssuer, tenantID, data)
}

// SubmitReceiver publishes receiver data and returns its batch ID
func (s *ProducerService) SubmitReceiver(ctx context.Context, tenantID string, data map[string]string) (string, error) {
	return s.submit(ctx, mdm.EntityTypeReceiver, tenantID, data)
}

// SubmitProduct publishes product data and returns its batch ID
func (s *ProducerService) SubmitProduct(ctx context.Context, tenantID string, data map[string]string) (string, error) {
	return s.submit(ctx, mdm.EntityTypeProduct, tenantID, data)
}

func (s *ProducerService) submit(ctx context.Context, entityType mdm.EntityType, tenantID string, data map[string]string) (string, error) {
	raw := mdm.NewRawRecord(entityType, tenantID, mdm.SourceAPICall, "", data)
	if err := s.publish(ctx, raw); err != nil {
		return "", err
	}
	logger.L(logger.Ensure(ctx, s.logger)).Info("raw record submitted",
		zap.String("entity_type", raw.EntityType),
		zap.String("tenant_id", tenantID),
		zap.String("batch_id", raw.BatchID),
	)
	return raw.BatchID, nil
}

// SubmitBatch publishes every record under one batch ID. The entity type is
// validated before anything is published; a failing record does not stop
// its siblings.
func (s *ProducerService) SubmitBatch(ctx context.Context, tenantID, entityType string, records []map[string]string) (*BatchResult, error) {
	return s.SubmitBatchWithID(ctx, uuid.NewString(), tenantID, entityType, records)
}

// SubmitBatchWithID is SubmitBatch with a caller-chosen batch ID
func (s *ProducerService) SubmitBatchWithID(ctx context.Context, batchID, tenantID, entityType string, records []map[string]string) (*BatchResult, error) {
	t, err := mdm.ParseEntityType(entityType)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{BatchID: batchID, Failures: []RecordFailure{}}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, data := range records {
		raw := mdm.NewRawRecord(t, tenantID, mdm.SourceCSVImport, result.BatchID, data)
		g.Go(func() error {
			err := s.publish(gctx, raw)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, RecordFailure{Index: i, Error: err.Error()})
				return nil
			}
			result.Published++
			return nil
		})
	}
	_ = g.Wait()
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Index < result.Failures[j].Index })

	log := logger.L(logger.Ensure(ctx, s.logger)).With(
		zap.String("entity_type", t.String()),
		zap.String("tenant_id", tenantID),
		zap.String("batch_id", result.BatchID),
		zap.Int("published", result.Published),
		zap.Int("failed", len(result.Failures)),
	)
	if len(result.Failures) > 0 {
		log.Warn("batch submitted with failures")
	} else {
		log.Info("batch submitted")
	}
	return result, nil
}

func (s *ProducerService) publish(ctx context.Context, raw mdm.RawRecord) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode raw record: %w", err)
	}
	_, err = s.publisher.Publish(ctx, s.topic, payload, map[string]string{
		AttrEntityType: raw.EntityType,
		AttrTenantID:   raw.TenantID,
		AttrBatchID:    raw.BatchID,
	})
	if err != nil {
		return fmt.Errorf("publish raw record: %w", err)
	}
	return nil
}
