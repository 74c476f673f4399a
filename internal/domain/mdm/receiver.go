package mdm

import (
	"github.com/flechaamarilla/mdm/internal/domain/shared"
)

// Receiver is the golden record of an invoice recipient, keyed by (tenant, RFC)
type Receiver struct {
	shared.TenantEntity
	RFC          string
	BusinessName string
	CfdiUsage    string
	PostalCode   string
	Email        string
}

// NewReceiver creates a receiver from cleaned data
func NewReceiver(tenantID string, cleaned CleanedRecord) *Receiver {
	r := &Receiver{TenantEntity: shared.NewTenantEntity(tenantID)}
	r.Apply(cleaned)
	return r
}

// HasNaturalKey reports whether the receiver can be deduplicated
func (r *Receiver) HasNaturalKey() bool {
	return r.RFC != ""
}

// Apply overwrites every standard field from cleaned, blanking absent ones
func (r *Receiver) Apply(cleaned CleanedRecord) {
	r.RFC = cleaned.Get(FieldRFC)
	r.BusinessName = cleaned.Get(FieldBusinessName)
	r.CfdiUsage = cleaned.Get(FieldCfdiUsage)
	r.PostalCode = cleaned.Get(FieldPostalCode)
	r.Email = cleaned.Get(FieldEmail)
	r.Touch()
}
