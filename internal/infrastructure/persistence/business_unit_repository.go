package persistence

import (
	"context"
	"errors"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBusinessUnitRepository implements invoicing.BusinessUnitRepository using GORM
type GormBusinessUnitRepository struct {
	db *gorm.DB
}

// NewGormBusinessUnitRepository creates a new GormBusinessUnitRepository
func NewGormBusinessUnitRepository(db *gorm.DB) *GormBusinessUnitRepository {
	return &GormBusinessUnitRepository{db: db}
}

func orderedMappings(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

// FindByID loads a business unit with its mappings in insertion order
func (r *GormBusinessUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.BusinessUnit, error) {
	var m models.BusinessUnitModel
	err := r.db.WithContext(ctx).
		Preload("Mappings", orderedMappings).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, invoicing.ErrBusinessUnitNotFound)
	}
	return m.ToDomain(), nil
}

// FindByName loads a business unit by its unique name
func (r *GormBusinessUnitRepository) FindByName(ctx context.Context, name string) (*invoicing.BusinessUnit, error) {
	var m models.BusinessUnitModel
	err := r.db.WithContext(ctx).
		Preload("Mappings", orderedMappings).
		Where("name = ?", name).
		First(&m).Error
	if err != nil {
		return nil, translateError(err, invoicing.ErrBusinessUnitNotFound)
	}
	return m.ToDomain(), nil
}

// FindAll lists every business unit ordered by name, mappings included
func (r *GormBusinessUnitRepository) FindAll(ctx context.Context) ([]invoicing.BusinessUnit, error) {
	var rows []models.BusinessUnitModel
	err := r.db.WithContext(ctx).
		Preload("Mappings", orderedMappings).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	units := make([]invoicing.BusinessUnit, len(rows))
	for i := range rows {
		units[i] = *rows[i].ToDomain()
	}
	return units, nil
}

// ExistsByName reports whether a unit with the name exists
func (r *GormBusinessUnitRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BusinessUnitModel{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

// Save upserts the unit and replaces its mappings in one transaction
func (r *GormBusinessUnitRepository) Save(ctx context.Context, bu *invoicing.BusinessUnit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := models.BusinessUnitModelFromDomain(bu)
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"name", "description", "rfc_emitter", "emitter_name", "default_currency", "series", "updated_at",
				}),
			}).
			Create(m).Error; err != nil {
			return err
		}

		if err := tx.Where("business_unit_id = ?", bu.ID).Delete(&models.FieldMappingModel{}).Error; err != nil {
			return err
		}
		if len(bu.Mappings) == 0 {
			return nil
		}
		rows := make([]*models.FieldMappingModel, len(bu.Mappings))
		for i := range bu.Mappings {
			rows[i] = models.FieldMappingModelFromDomain(&bu.Mappings[i], i)
		}
		return tx.Create(rows).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invoicing.ErrBusinessUnitExists
	}
	return translateError(err, invoicing.ErrBusinessUnitNotFound)
}

// Delete removes the unit together with its mappings and tickets
func (r *GormBusinessUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_unit_id = ?", id).Delete(&models.TicketModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("business_unit_id = ?", id).Delete(&models.FieldMappingModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.BusinessUnitModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicing.ErrBusinessUnitNotFound
		}
		return nil
	})
}

// GormFieldMappingRepository implements invoicing.FieldMappingRepository using GORM
type GormFieldMappingRepository struct {
	db *gorm.DB
}

// NewGormFieldMappingRepository creates a new GormFieldMappingRepository
func NewGormFieldMappingRepository(db *gorm.DB) *GormFieldMappingRepository {
	return &GormFieldMappingRepository{db: db}
}

// FindByBusinessUnit returns the unit's mappings in insertion order
func (r *GormFieldMappingRepository) FindByBusinessUnit(ctx context.Context, businessUnitID uuid.UUID) ([]invoicing.FieldMapping, error) {
	var rows []models.FieldMappingModel
	err := r.db.WithContext(ctx).
		Scopes(orderedMappings).
		Where("business_unit_id = ?", businessUnitID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	mappings := make([]invoicing.FieldMapping, len(rows))
	for i := range rows {
		mappings[i] = rows[i].ToDomain()
	}
	return mappings, nil
}

// Save appends a mapping after the unit's existing ones
func (r *GormFieldMappingRepository) Save(ctx context.Context, mapping *invoicing.FieldMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.BusinessUnitModel{}).Where("id = ?", mapping.BusinessUnitID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return invoicing.ErrBusinessUnitNotFound
		}

		var next struct{ Position int }
		if err := tx.Model(&models.FieldMappingModel{}).
			Select("COALESCE(MAX(position) + 1, 0) AS position").
			Where("business_unit_id = ?", mapping.BusinessUnitID).
			Scan(&next).Error; err != nil {
			return err
		}
		return tx.Create(models.FieldMappingModelFromDomain(mapping, next.Position)).Error
	})
}

// Delete removes one mapping of a business unit
func (r *GormFieldMappingRepository) Delete(ctx context.Context, businessUnitID, mappingID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND business_unit_id = ?", mappingID, businessUnitID).
		Delete(&models.FieldMappingModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return invoicing.ErrMappingNotFound
	}
	return nil
}
