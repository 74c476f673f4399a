package mdm

import (
	"time"

	"github.com/google/uuid"
)

// Raw record sources
const (
	SourceAPICall   = "api-call"
	SourceCSVImport = "csv-import"
)

// Canonical field names shared by the cleaned records
const (
	FieldRFC          = "rfc"
	FieldBusinessName = "businessName"
	FieldTaxRegime    = "taxRegime"
	FieldPostalCode   = "postalCode"
	FieldCfdiUsage    = "cfdiUsage"
	FieldEmail        = "email"
	FieldProdServCode = "prodServCode"
	FieldInternalCode = "internalCode"
	FieldDescription  = "description"
	FieldUnit         = "unit"
	FieldUnitPrice    = "unitPrice"
)

// RawRecord is an uncleaned entity record as received from an API call or an upload
type RawRecord struct {
	EntityType string            `json:"entityType"`
	TenantID   string            `json:"tenantId"`
	Source     string            `json:"source"`
	Data       map[string]string `json:"data"`
	BatchID    string            `json:"batchId"`
}

// NewRawRecord builds a record with a fresh batch ID when batchID is empty
func NewRawRecord(entityType EntityType, tenantID, source, batchID string, data map[string]string) RawRecord {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	return RawRecord{
		EntityType: entityType.String(),
		TenantID:   tenantID,
		Source:     source,
		Data:       data,
		BatchID:    batchID,
	}
}

// CleanedRecord holds values keyed by canonical field names only
type CleanedRecord map[string]string

// Get returns the value for field, or "" when absent
func (r CleanedRecord) Get(field string) string {
	return r[field]
}

// Has reports whether field is present with a non-empty value
func (r CleanedRecord) Has(field string) bool {
	return r[field] != ""
}

// ProcessedData is the envelope emitted once a raw record has been cleaned, stored and scored
type ProcessedData struct {
	EntityType   string        `json:"entityType"`
	TenantID     string        `json:"tenantId"`
	EntityID     uuid.UUID     `json:"entityId"`
	Data         CleanedRecord `json:"data"`
	QualityScore float64       `json:"qualityScore"`
	Timestamp    int64         `json:"timestamp"`
	BatchID      string        `json:"batchId"`
}

// NewProcessedData assembles the envelope stamped with the current time in epoch milliseconds
func NewProcessedData(entityType EntityType, tenantID string, entityID uuid.UUID, data CleanedRecord, score float64, batchID string) *ProcessedData {
	return &ProcessedData{
		EntityType:   entityType.String(),
		TenantID:     tenantID,
		EntityID:     entityID,
		Data:         data,
		QualityScore: score,
		Timestamp:    time.Now().UnixMilli(),
		BatchID:      batchID,
	}
}
