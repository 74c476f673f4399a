package invoicing

import (
	"context"

	"github.com/google/uuid"
)

// BusinessUnitRepository persists business units together with their mappings
type BusinessUnitRepository interface {
	// FindByID loads the unit and its mappings in creation order
	FindByID(ctx context.Context, id uuid.UUID) (*BusinessUnit, error)
	FindByName(ctx context.Context, name string) (*BusinessUnit, error)
	FindAll(ctx context.Context) ([]BusinessUnit, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	// Save upserts the unit and replaces its mapping set
	Save(ctx context.Context, bu *BusinessUnit) error
	// Delete removes the unit and cascades to its mappings and tickets
	Delete(ctx context.Context, id uuid.UUID) error
}

// FieldMappingRepository reads and writes individual mappings
type FieldMappingRepository interface {
	FindByBusinessUnit(ctx context.Context, businessUnitID uuid.UUID) ([]FieldMapping, error)
	Save(ctx context.Context, mapping *FieldMapping) error
	Delete(ctx context.Context, businessUnitID, mappingID uuid.UUID) error
}

// TicketRepository stores ticket documents
type TicketRepository interface {
	FindByToken(ctx context.Context, businessUnitID uuid.UUID, token string) (*Ticket, error)
	Save(ctx context.Context, ticket *Ticket) error
}
