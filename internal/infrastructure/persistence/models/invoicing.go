package models

import (
	"encoding/json"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BusinessUnitModel is the persistence model for the BusinessUnit aggregate
type BusinessUnitModel struct {
	BaseModel
	Name            string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description     string              `gorm:"type:text"`
	RFCEmitter      string              `gorm:"column:rfc_emitter;type:varchar(13);not null"`
	EmitterName     string              `gorm:"type:varchar(300);not null"`
	DefaultCurrency string              `gorm:"type:varchar(3);not null"`
	Series          string              `gorm:"type:varchar(20);not null"`
	Mappings        []FieldMappingModel `gorm:"foreignKey:BusinessUnitID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BusinessUnitModel) TableName() string {
	return "business_units"
}

// ToDomain converts the persistence model to a domain BusinessUnit.
// Mappings are expected to be loaded in position order.
func (m *BusinessUnitModel) ToDomain() *invoicing.BusinessUnit {
	bu := &invoicing.BusinessUnit{
		BaseEntity:      m.BaseModel.ToDomain(),
		Name:            m.Name,
		Description:     m.Description,
		RFCEmitter:      m.RFCEmitter,
		EmitterName:     m.EmitterName,
		DefaultCurrency: m.DefaultCurrency,
		Series:          m.Series,
	}
	if len(m.Mappings) > 0 {
		bu.Mappings = make([]invoicing.FieldMapping, len(m.Mappings))
		for i := range m.Mappings {
			bu.Mappings[i] = m.Mappings[i].ToDomain()
		}
	}
	return bu
}

// BusinessUnitModelFromDomain creates a persistence model without its mappings
func BusinessUnitModelFromDomain(bu *invoicing.BusinessUnit) *BusinessUnitModel {
	m := &BusinessUnitModel{
		Name:            bu.Name,
		Description:     bu.Description,
		RFCEmitter:      bu.RFCEmitter,
		EmitterName:     bu.EmitterName,
		DefaultCurrency: bu.DefaultCurrency,
		Series:          bu.Series,
	}
	m.FromDomainBaseEntity(bu.BaseEntity)
	return m
}

// FieldMappingModel is the persistence model for FieldMapping. Position keeps
// the insertion order stable across databases with coarse timestamps.
type FieldMappingModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessUnitID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SourceFieldName   string    `gorm:"type:varchar(200);not null"`
	StandardFieldName string    `gorm:"type:varchar(100);not null"`
	Position          int       `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FieldMappingModel) TableName() string {
	return "field_mappings"
}

// ToDomain converts the persistence model to a domain FieldMapping
func (m *FieldMappingModel) ToDomain() invoicing.FieldMapping {
	return invoicing.FieldMapping{
		ID:                m.ID,
		BusinessUnitID:    m.BusinessUnitID,
		SourceFieldName:   m.SourceFieldName,
		StandardFieldName: m.StandardFieldName,
		CreatedAt:         m.CreatedAt,
	}
}

// FieldMappingModelFromDomain creates a persistence model at the given position
func FieldMappingModelFromDomain(fm *invoicing.FieldMapping, position int) *FieldMappingModel {
	return &FieldMappingModel{
		ID:                fm.ID,
		BusinessUnitID:    fm.BusinessUnitID,
		SourceFieldName:   fm.SourceFieldName,
		StandardFieldName: fm.StandardFieldName,
		Position:          position,
		CreatedAt:         fm.CreatedAt,
	}
}

// TicketModel stores a point-of-sale ticket document as JSON
type TicketModel struct {
	BaseModel
	BusinessUnitID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_unit_token,priority:1"`
	Token          string         `gorm:"type:varchar(200);not null;uniqueIndex:idx_ticket_unit_token,priority:2"`
	Payload        datatypes.JSON `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "tickets"
}

// ToDomain converts the persistence model to a domain Ticket
func (m *TicketModel) ToDomain() *invoicing.Ticket {
	return &invoicing.Ticket{
		BaseEntity:     m.BaseModel.ToDomain(),
		BusinessUnitID: m.BusinessUnitID,
		Token:          m.Token,
		Payload:        json.RawMessage(m.Payload),
	}
}

// TicketModelFromDomain creates a persistence model from a domain Ticket
func TicketModelFromDomain(t *invoicing.Ticket) *TicketModel {
	m := &TicketModel{
		BusinessUnitID: t.BusinessUnitID,
		Token:          t.Token,
		Payload:        datatypes.JSON(t.Payload),
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
