package persistence

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTicketRepository stores tickets and serves them to the invoice transformer.
// It implements both invoicing.TicketRepository and invoicing.TicketProvider.
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

func (r *GormTicketRepository) FindByToken(ctx context.Context, businessUnitID uuid.UUID, token string) (*invoicing.Ticket, error) {
	var m models.TicketModel
	err := r.db.WithContext(ctx).
		Where("business_unit_id = ? AND token = ?", businessUnitID, token).
		First(&m).Error
	if err != nil {
		return nil, translateError(err, invoicing.ErrTicketNotFound)
	}
	return m.ToDomain(), nil
}

// Save upserts the ticket on (business unit, token)
func (r *GormTicketRepository) Save(ctx context.Context, ticket *invoicing.Ticket) error {
	m := models.TicketModelFromDomain(ticket)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "business_unit_id"}, {Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(m).Error
	return translateError(err, invoicing.ErrTicketNotFound)
}

// GetTicketPayload resolves and decodes the ticket document
func (r *GormTicketRepository) GetTicketPayload(ctx context.Context, token string, businessUnitID uuid.UUID) (invoicing.TicketPayload, error) {
	t, err := r.FindByToken(ctx, businessUnitID, token)
	if err != nil {
		return nil, err
	}
	return invoicing.DecodeTicketPayload(t.Payload)
}
