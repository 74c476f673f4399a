package mdm

import (
	"github.com/flechaamarilla/mdm/internal/domain/shared"
)

// Issuer is the golden record of an invoice emitter, keyed by (tenant, RFC).
// Records without an RFC are stored but never matched on update.
type Issuer struct {
	shared.TenantEntity
	RFC          string
	BusinessName string
	TaxRegime    string
	PostalCode   string
}

// NewIssuer creates an issuer from cleaned data
func NewIssuer(tenantID string, cleaned CleanedRecord) *Issuer {
	i := &Issuer{TenantEntity: shared.NewTenantEntity(tenantID)}
	i.Apply(cleaned)
	return i
}

// HasNaturalKey reports whether the issuer can be deduplicated
func (i *Issuer) HasNaturalKey() bool {
	return i.RFC != ""
}

// Apply overwrites every standard field from cleaned. Fields absent from
// cleaned are blanked rather than kept.
func (i *Issuer) Apply(cleaned CleanedRecord) {
	i.RFC = cleaned.Get(FieldRFC)
	i.BusinessName = cleaned.Get(FieldBusinessName)
	i.TaxRegime = cleaned.Get(FieldTaxRegime)
	i.PostalCode = cleaned.Get(FieldPostalCode)
	i.Touch()
}
