package mdm

import (
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the golden record of a sellable item. It is keyed by
// (tenant, internal code) when an internal code is known.
type Product struct {
	shared.TenantEntity
	ProdServCode string
	InternalCode string
	Description  string
	Unit         string
	UnitPrice    decimal.NullDecimal
}

// NewProduct creates a product from cleaned data
func NewProduct(tenantID string, cleaned CleanedRecord) (*Product, []FieldWarning) {
	p := &Product{TenantEntity: shared.NewTenantEntity(tenantID)}
	return p, p.Apply(cleaned)
}

// HasNaturalKey reports whether the product can be deduplicated
func (p *Product) HasNaturalKey() bool {
	return p.InternalCode != ""
}

// Apply overwrites the text fields from cleaned. An unparsable unit price
// leaves the stored price untouched and is reported as a warning.
func (p *Product) Apply(cleaned CleanedRecord) []FieldWarning {
	var warnings []FieldWarning
	p.ProdServCode = cleaned.Get(FieldProdServCode)
	p.InternalCode = cleaned.Get(FieldInternalCode)
	p.Description = cleaned.Get(FieldDescription)
	p.Unit = cleaned.Get(FieldUnit)
	if cleaned.Has(FieldUnitPrice) {
		price, err := ParsePrice(cleaned.Get(FieldUnitPrice))
		if err != nil {
			warnings = append(warnings, FieldWarning{FieldUnitPrice, cleaned.Get(FieldUnitPrice), "unit price not stored"})
		} else {
			p.UnitPrice = decimal.NewNullDecimal(price)
		}
	}
	p.Touch()
	return warnings
}
