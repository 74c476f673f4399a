// Package upload turns uploaded CSV and spreadsheet files into raw record
// batches.
package upload

import (
	"context"

	appmdm "github.com/flechaamarilla/mdm/internal/application/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/infrastructure/upload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archiver keeps a copy of the uploaded file
type Archiver interface {
	Archive(ctx context.Context, entityType, tenantID, batchID, filename, contentType string, data []byte) (string, error)
}

// BatchSubmitter publishes parsed records
type BatchSubmitter interface {
	SubmitBatchWithID(ctx context.Context, batchID, tenantID, entityType string, records []map[string]string) (*appmdm.BatchResult, error)
}

// Result is the outcome of an upload
type Result struct {
	appmdm.BatchResult
	Records  int    `json:"records"`
	Archived string `json:"archived,omitempty"`
}

// Service parses uploads and hands their rows to the raw-data producer
type Service struct {
	producer BatchSubmitter
	archive  Archiver
	logger   *zap.Logger
}

// NewService creates an upload service. archive may be nil to skip archiving.
func NewService(producer BatchSubmitter, archive Archiver, log *zap.Logger) *Service {
	return &Service{producer: producer, archive: archive, logger: log}
}

// Process parses data according to the filename extension, archives the
// original bytes when configured and publishes every row under one batch.
func (s *Service) Process(ctx context.Context, entityType, tenantID, filename string, data []byte) (*Result, error) {
	ctx = logger.Ensure(ctx, s.logger)

	t, err := mdm.ParseEntityType(entityType)
	if err != nil {
		return nil, err
	}
	format, err := upload.DetectFormat(filename)
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_INPUT", "Only .csv and .xlsx files are accepted", err)
	}

	records, err := upload.ParseRecords(filename, data)
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_INPUT", "Uploaded file could not be parsed", err)
	}

	batchID := uuid.NewString()
	result := &Result{Records: len(records)}
	if s.archive != nil {
		location, err := s.archive.Archive(ctx, t.String(), tenantID, batchID, filename, format.ContentType(), data)
		if err != nil {
			return nil, err
		}
		result.Archived = location
	}

	batch, err := s.producer.SubmitBatchWithID(ctx, batchID, tenantID, t.String(), records)
	if err != nil {
		return nil, err
	}
	result.BatchResult = *batch

	logger.L(ctx).Info("upload processed",
		zap.String("entity_type", t.String()),
		zap.String("tenant_id", tenantID),
		zap.String("filename", filename),
		zap.String("batch_id", batchID),
		zap.Int("records", result.Records),
		zap.Int("published", result.Published),
	)
	return result, nil
}
