package mdm

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
)

// QueryService lists golden records of a tenant
type QueryService struct {
	issuers   mdm.IssuerRepository
	receivers mdm.ReceiverRepository
	products  mdm.ProductRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(issuers mdm.IssuerRepository, receivers mdm.ReceiverRepository, products mdm.ProductRepository) *QueryService {
	return &QueryService{issuers: issuers, receivers: receivers, products: products}
}

// ListIssuers returns a page of issuers
func (s *QueryService) ListIssuers(ctx context.Context, tenantID string, filter shared.Filter) (shared.Paginated[IssuerResponse], error) {
	filter = filter.Normalize()
	items, total, err := s.issuers.FindAllByTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[IssuerResponse]{}, err
	}
	out := make([]IssuerResponse, len(items))
	for i := range items {
		out[i] = ToIssuerResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// ListReceivers returns a page of receivers
func (s *QueryService) ListReceivers(ctx context.Context, tenantID string, filter shared.Filter) (shared.Paginated[ReceiverResponse], error) {
	filter = filter.Normalize()
	items, total, err := s.receivers.FindAllByTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ReceiverResponse]{}, err
	}
	out := make([]ReceiverResponse, len(items))
	for i := range items {
		out[i] = ToReceiverResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// ListProducts returns a page of products
func (s *QueryService) ListProducts(ctx context.Context, tenantID string, filter shared.Filter) (shared.Paginated[ProductResponse], error) {
	filter = filter.Normalize()
	items, total, err := s.products.FindAllByTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	out := make([]ProductResponse, len(items))
	for i := range items {
		out[i] = ToProductResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}
