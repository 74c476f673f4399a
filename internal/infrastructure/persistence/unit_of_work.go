package persistence

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"gorm.io/gorm"
)

// GormUnitOfWork runs golden record work inside one database transaction
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do commits when fn returns nil and rolls back otherwise
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(tx mdm.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories(tx))
	})
}

// Repositories binds every golden record repository to db
func Repositories(db *gorm.DB) mdm.Repositories {
	return mdm.Repositories{
		Issuers:   NewGormIssuerRepository(db),
		Receivers: NewGormReceiverRepository(db),
		Products:  NewGormProductRepository(db),
	}
}
