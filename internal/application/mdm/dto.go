package mdm

import (
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssuerResponse is the outward view of an issuer
type IssuerResponse struct {
	ID           uuid.UUID `json:"id"`
	TenantID     string    `json:"tenantId"`
	RFC          string    `json:"rfc"`
	BusinessName string    `json:"businessName"`
	TaxRegime    string    `json:"taxRegime"`
	PostalCode   string    `json:"postalCode"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ReceiverResponse is the outward view of a receiver
type ReceiverResponse struct {
	ID           uuid.UUID `json:"id"`
	TenantID     string    `json:"tenantId"`
	RFC          string    `json:"rfc"`
	BusinessName string    `json:"businessName"`
	CfdiUsage    string    `json:"cfdiUsage"`
	PostalCode   string    `json:"postalCode"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductResponse is the outward view of a product
type ProductResponse struct {
	ID           uuid.UUID        `json:"id"`
	TenantID     string           `json:"tenantId"`
	ProdServCode string           `json:"prodServCode"`
	InternalCode string           `json:"internalCode,omitempty"`
	Description  string           `json:"description"`
	Unit         string           `json:"unit"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ToIssuerResponse converts a domain issuer
func ToIssuerResponse(i *mdm.Issuer) IssuerResponse {
	return IssuerResponse{
		ID:           i.ID,
		TenantID:     i.TenantID,
		RFC:          i.RFC,
		BusinessName: i.BusinessName,
		TaxRegime:    i.TaxRegime,
		PostalCode:   i.PostalCode,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// ToReceiverResponse converts a domain receiver
func ToReceiverResponse(r *mdm.Receiver) ReceiverResponse {
	return ReceiverResponse{
		ID:           r.ID,
		TenantID:     r.TenantID,
		RFC:          r.RFC,
		BusinessName: r.BusinessName,
		CfdiUsage:    r.CfdiUsage,
		PostalCode:   r.PostalCode,
		Email:        r.Email,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ToProductResponse converts a domain product
func ToProductResponse(p *mdm.Product) ProductResponse {
	resp := ProductResponse{
		ID:           p.ID,
		TenantID:     p.TenantID,
		ProdServCode: p.ProdServCode,
		InternalCode: p.InternalCode,
		Description:  p.Description,
		Unit:         p.Unit,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.UnitPrice.Valid {
		price := p.UnitPrice.Decimal
		resp.UnitPrice = &price
	}
	return resp
}
