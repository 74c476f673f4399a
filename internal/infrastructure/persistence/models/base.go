package models

import (
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides the common persistence fields. It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// All returns every model managed by the service, in dependency order
func All() []any {
	return []any{
		&IssuerModel{},
		&ReceiverModel{},
		&ProductModel{},
		&BusinessUnitModel{},
		&FieldMappingModel{},
		&TicketModel{},
	}
}
