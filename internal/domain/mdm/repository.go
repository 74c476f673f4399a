package mdm

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
)

// IssuerRepository persists issuers
type IssuerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Issuer, error)
	// FindByTenantAndRFC returns shared.ErrNotFound when no row matches
	FindByTenantAndRFC(ctx context.Context, tenantID, rfc string) (*Issuer, error)
	// FindFirstByTenant returns the oldest issuer of the tenant
	FindFirstByTenant(ctx context.Context, tenantID string) (*Issuer, error)
	FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]Issuer, int64, error)
	Save(ctx context.Context, issuer *Issuer) error
}

// ReceiverRepository persists receivers
type ReceiverRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Receiver, error)
	FindByTenantAndRFC(ctx context.Context, tenantID, rfc string) (*Receiver, error)
	FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]Receiver, int64, error)
	Save(ctx context.Context, receiver *Receiver) error
}

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByTenantAndInternalCode(ctx context.Context, tenantID, internalCode string) (*Product, error)
	FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]Product, int64, error)
	Save(ctx context.Context, product *Product) error
}

// UnitOfWork runs fn with repositories bound to a single transaction
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Repositories) error) error
}

// Repositories groups the golden record repositories sharing one transaction
type Repositories struct {
	Issuers   IssuerRepository
	Receivers ReceiverRepository
	Products  ProductRepository
}
