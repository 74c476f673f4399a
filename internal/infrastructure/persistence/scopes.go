package persistence

import (
	"errors"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"gorm.io/gorm"
)

// tenantScope restricts a query to one tenant
func tenantScope(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// paginate applies offset and limit of a normalized filter, oldest first
func paginate(filter shared.Filter) func(db *gorm.DB) *gorm.DB {
	f := filter.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC").Offset(f.Offset()).Limit(f.PageSize)
	}
}

// translateError maps gorm errors onto domain errors. notFound replaces
// gorm.ErrRecordNotFound so callers can return entity specific codes.
func translateError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.WrapDomainError(shared.ErrAlreadyExists.Code, shared.ErrAlreadyExists.Message, err)
	default:
		return err
	}
}
