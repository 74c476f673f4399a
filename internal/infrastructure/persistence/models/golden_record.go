package models

import (
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// IssuerModel is the persistence model for the Issuer golden record.
// Cleaned values are stored even when they fail validation, so the text
// columns carry no length limit. RFC is nullable like ProductModel.InternalCode.
type IssuerModel struct {
	BaseModel
	TenantID     string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_issuer_tenant_rfc,priority:1"`
	RFC          *string `gorm:"column:rfc;type:text;uniqueIndex:idx_issuer_tenant_rfc,priority:2"`
	BusinessName string  `gorm:"type:text"`
	TaxRegime    string  `gorm:"type:text"`
	PostalCode   string  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (IssuerModel) TableName() string {
	return "issuers"
}

// ToDomain converts the persistence model to a domain Issuer
func (m *IssuerModel) ToDomain() *mdm.Issuer {
	return &mdm.Issuer{
		TenantEntity: shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID},
		RFC:          derefString(m.RFC),
		BusinessName: m.BusinessName,
		TaxRegime:    m.TaxRegime,
		PostalCode:   m.PostalCode,
	}
}

// IssuerModelFromDomain creates a persistence model from a domain Issuer
func IssuerModelFromDomain(i *mdm.Issuer) *IssuerModel {
	m := &IssuerModel{
		TenantID:     i.TenantID,
		RFC:          nullableString(i.RFC),
		BusinessName: i.BusinessName,
		TaxRegime:    i.TaxRegime,
		PostalCode:   i.PostalCode,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// ReceiverModel is the persistence model for the Receiver golden record
type ReceiverModel struct {
	BaseModel
	TenantID     string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_receiver_tenant_rfc,priority:1"`
	RFC          *string `gorm:"column:rfc;type:text;uniqueIndex:idx_receiver_tenant_rfc,priority:2"`
	BusinessName string  `gorm:"type:text"`
	CfdiUsage    string  `gorm:"type:text"`
	PostalCode   string  `gorm:"type:text"`
	Email        string  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReceiverModel) TableName() string {
	return "receivers"
}

// ToDomain converts the persistence model to a domain Receiver
func (m *ReceiverModel) ToDomain() *mdm.Receiver {
	return &mdm.Receiver{
		TenantEntity: shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID},
		RFC:          derefString(m.RFC),
		BusinessName: m.BusinessName,
		CfdiUsage:    m.CfdiUsage,
		PostalCode:   m.PostalCode,
		Email:        m.Email,
	}
}

// ReceiverModelFromDomain creates a persistence model from a domain Receiver
func ReceiverModelFromDomain(r *mdm.Receiver) *ReceiverModel {
	m := &ReceiverModel{
		TenantID:     r.TenantID,
		RFC:          nullableString(r.RFC),
		BusinessName: r.BusinessName,
		CfdiUsage:    r.CfdiUsage,
		PostalCode:   r.PostalCode,
		Email:        r.Email,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// ProductModel is the persistence model for the Product golden record.
// InternalCode is nullable so products without one never collide on the unique index.
type ProductModel struct {
	BaseModel
	TenantID     string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_tenant_code,priority:1"`
	InternalCode *string             `gorm:"type:text;uniqueIndex:idx_product_tenant_code,priority:2"`
	ProdServCode string              `gorm:"type:text"`
	Description  string              `gorm:"type:text"`
	Unit         string              `gorm:"type:text"`
	UnitPrice    decimal.NullDecimal `gorm:"type:numeric"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *mdm.Product {
	p := &mdm.Product{
		TenantEntity: shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID},
		ProdServCode: m.ProdServCode,
		Description:  m.Description,
		Unit:         m.Unit,
		UnitPrice:    m.UnitPrice,
	}
	p.InternalCode = derefString(m.InternalCode)
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *mdm.Product) *ProductModel {
	m := &ProductModel{
		ProdServCode: p.ProdServCode,
		Description:  p.Description,
		Unit:         p.Unit,
		UnitPrice:    p.UnitPrice,
		TenantID:     p.TenantID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	m.InternalCode = nullableString(p.InternalCode)
	return m
}

// nullableString maps an empty natural key to NULL so rows without one
// never collide on the unique index
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
