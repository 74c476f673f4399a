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

// GormProductRepository implements mdm.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*mdm.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return m.ToDomain(), nil
}

// FindByTenantAndInternalCode finds a product by its natural key. An empty
// code never matches.
func (r *GormProductRepository) FindByTenantAndInternalCode(ctx context.Context, tenantID, internalCode string) (*mdm.Product, error) {
	if internalCode == "" {
		return nil, shared.ErrNotFound
	}
	var m models.ProductModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("internal_code = ?", internalCode).
		First(&m).Error
	if err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return m.ToDomain(), nil
}

func (r *GormProductRepository) FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]mdm.Product, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.ProductModel{}).Scopes(tenantScope(tenantID))
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := query().Scopes(paginate(filter)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	products := make([]mdm.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

func (r *GormProductRepository) Save(ctx context.Context, product *mdm.Product) error {
	m := models.ProductModelFromDomain(product)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"internal_code", "prod_serv_code", "description", "unit", "unit_price", "updated_at"}),
		}).
		Create(m).Error
	return translateError(err, shared.ErrNotFound)
}
