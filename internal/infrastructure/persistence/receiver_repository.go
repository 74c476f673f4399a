package persistence

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiverRepository implements mdm.ReceiverRepository using GORM
type GormReceiverRepository struct {
	db *gorm.DB
}

// NewGormReceiverRepository creates a new GormReceiverRepository
func NewGormReceiverRepository(db *gorm.DB) *GormReceiverRepository {
	return &GormReceiverRepository{db: db}
}

func (r *GormReceiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*mdm.Receiver, error) {
	var m models.ReceiverModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return m.ToDomain(), nil
}

func (r *GormReceiverRepository) FindByTenantAndRFC(ctx context.Context, tenantID, rfc string) (*mdm.Receiver, error) {
	if rfc == "" {
		return nil, shared.ErrNotFound
	}
	var m models.ReceiverModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("rfc = ?", rfc).
		First(&m).Error
	if err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return m.ToDomain(), nil
}

func (r *GormReceiverRepository) FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]mdm.Receiver, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.ReceiverModel{}).Scopes(tenantScope(tenantID))
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ReceiverModel
	if err := query().Scopes(paginate(filter)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	receivers := make([]mdm.Receiver, len(rows))
	for i := range rows {
		receivers[i] = *rows[i].ToDomain()
	}
	return receivers, total, nil
}

func (r *GormReceiverRepository) Save(ctx context.Context, receiver *mdm.Receiver) error {
	m := models.ReceiverModelFromDomain(receiver)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rfc", "business_name", "cfdi_usage", "postal_code", "email", "updated_at"}),
		}).
		Create(m).Error
	return translateError(err, shared.ErrNotFound)
}
