package invoicing

import (
	"encoding/json"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/google/uuid"
)

// BusinessUnitRequest creates or updates a business unit
type BusinessUnitRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Description     string `json:"description" binding:"max=500"`
	RFCEmitter      string `json:"rfcEmitter" binding:"required,max=13"`
	EmitterName     string `json:"emitterName" binding:"required,max=200"`
	DefaultCurrency string `json:"defaultCurrency" binding:"required,len=3"`
	Series          string `json:"series" binding:"required,max=25"`
	// Mappings is only read on create
	Mappings map[string]string `json:"mappings"`
}

func (r BusinessUnitRequest) attributes() invoicing.BusinessUnitAttributes {
	return invoicing.BusinessUnitAttributes{
		Name:            r.Name,
		Description:     r.Description,
		RFCEmitter:      r.RFCEmitter,
		EmitterName:     r.EmitterName,
		DefaultCurrency: r.DefaultCurrency,
		Series:          r.Series,
	}
}

// FieldMappingRequest adds one mapping to a business unit
type FieldMappingRequest struct {
	SourceFieldName   string `json:"sourceFieldName" binding:"required,max=100"`
	StandardFieldName string `json:"standardFieldName" binding:"required,max=100"`
}

// BusinessUnitResponse is the outward view of a business unit
type BusinessUnitResponse struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	RFCEmitter      string                 `json:"rfcEmitter"`
	EmitterName     string                 `json:"emitterName"`
	DefaultCurrency string                 `json:"defaultCurrency"`
	Series          string                 `json:"series"`
	Mappings        []FieldMappingResponse `json:"mappings"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// FieldMappingResponse is the outward view of a field mapping
type FieldMappingResponse struct {
	ID                uuid.UUID `json:"id"`
	BusinessUnitID    uuid.UUID `json:"businessUnitId"`
	SourceFieldName   string    `json:"sourceFieldName"`
	StandardFieldName string    `json:"standardFieldName"`
}

// TicketResponse is the outward view of a stored ticket
type TicketResponse struct {
	ID             uuid.UUID       `json:"id"`
	BusinessUnitID uuid.UUID       `json:"businessUnitId"`
	Token          string          `json:"token"`
	Payload        json.RawMessage `json:"payload"`
	Created        bool            `json:"created"`
}

// ToBusinessUnitResponse converts a domain business unit
func ToBusinessUnitResponse(bu *invoicing.BusinessUnit) BusinessUnitResponse {
	mappings := make([]FieldMappingResponse, len(bu.Mappings))
	for i := range bu.Mappings {
		mappings[i] = ToFieldMappingResponse(&bu.Mappings[i])
	}
	return BusinessUnitResponse{
		ID:              bu.ID,
		Name:            bu.Name,
		Description:     bu.Description,
		RFCEmitter:      bu.RFCEmitter,
		EmitterName:     bu.EmitterName,
		DefaultCurrency: bu.DefaultCurrency,
		Series:          bu.Series,
		Mappings:        mappings,
		CreatedAt:       bu.CreatedAt,
		UpdatedAt:       bu.UpdatedAt,
	}
}

// ToFieldMappingResponse converts a domain field mapping
func ToFieldMappingResponse(m *invoicing.FieldMapping) FieldMappingResponse {
	return FieldMappingResponse{
		ID:                m.ID,
		BusinessUnitID:    m.BusinessUnitID,
		SourceFieldName:   m.SourceFieldName,
		StandardFieldName: m.StandardFieldName,
	}
}
