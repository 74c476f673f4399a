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

// GormIssuerRepository implements mdm.IssuerRepository using GORM
type GormIssuerRepository struct {
	db *gorm.DB
}

// NewGormIssuerRepository creates a new GormIssuerRepository
func NewGormIssuerRepository(db *gorm.DB) *GormIssuerRepository {
	return &GormIssuerRepository{db: db}
}

// FindByID finds an issuer by its ID
func (r *GormIssuerRepository) FindByID(ctx context.Context, id uuid.UUID) (*mdm.Issuer, error) {
	var m models.IssuerModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return m.ToDomain(), nil
}

// FindByTenantAndRFC finds the issuer golden record for a natural key. An
// empty RFC never matches.
func (r *GormIssuerRepository) FindByTenantAndRFC(ctx context.Context, tenantID, rfc string) (*mdm.Issuer, error) {
	if rfc == "" {
		return nil, shared.ErrNotFound
	}
	var m models.IssuerModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("rfc = ?", rfc).
		First(&m).Error
	if err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return m.ToDomain(), nil
}

// FindFirstByTenant returns the oldest issuer of a tenant
func (r *GormIssuerRepository) FindFirstByTenant(ctx context.Context, tenantID string) (*mdm.Issuer, error) {
	var m models.IssuerModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Order("created_at ASC, id ASC").
		First(&m).Error
	if err != nil {
		return nil, translateError(err, mdm.ErrIssuerNotFound)
	}
	return m.ToDomain(), nil
}

// FindAllByTenant lists a page of issuers and the tenant total
func (r *GormIssuerRepository) FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]mdm.Issuer, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.IssuerModel{}).Scopes(tenantScope(tenantID))
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.IssuerModel
	if err := query().Scopes(paginate(filter)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	issuers := make([]mdm.Issuer, len(rows))
	for i := range rows {
		issuers[i] = *rows[i].ToDomain()
	}
	return issuers, total, nil
}

// Save inserts or updates the issuer by primary key
func (r *GormIssuerRepository) Save(ctx context.Context, issuer *mdm.Issuer) error {
	m := models.IssuerModelFromDomain(issuer)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rfc", "business_name", "tax_regime", "postal_code", "updated_at"}),
		}).
		Create(m).Error
	return translateError(err, shared.ErrNotFound)
}
