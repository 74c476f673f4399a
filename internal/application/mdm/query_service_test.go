package mdm

import (
	"context"
	"testing"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIssuers_NormalizesFilter(t *testing.T) {
	m := newRepoMocks()
	svc := NewQueryService(m.issuers, m.receivers, m.products)

	issuer := testIssuer(t)
	m.issuers.On("FindAllByTenant", context.Background(), testTenant, shared.Filter{Page: 1, PageSize: 50}).
		Return([]mdm.Issuer{*issuer}, int64(51), nil)

	page, err := svc.ListIssuers(context.Background(), testTenant, shared.Filter{})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, issuer.ID, page.Items[0].ID)
	assert.Equal(t, "EMI010101AAA", page.Items[0].RFC)
	assert.Equal(t, int64(51), page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestListProducts_PriceOptional(t *testing.T) {
	m := newRepoMocks()
	svc := NewQueryService(m.issuers, m.receivers, m.products)

	priced, _ := mdm.NewProduct(testTenant, mdm.CleanedRecord{mdm.FieldDescription: "A", mdm.FieldUnitPrice: "10.50"})
	unpriced, _ := mdm.NewProduct(testTenant, mdm.CleanedRecord{mdm.FieldDescription: "B"})
	filter := shared.Filter{Page: 2, PageSize: 10}
	m.products.On("FindAllByTenant", context.Background(), testTenant, filter).
		Return([]mdm.Product{*priced, *unpriced}, int64(12), nil)

	page, err := svc.ListProducts(context.Background(), testTenant, filter)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[0].UnitPrice)
	assert.True(t, page.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.5")))
	assert.Nil(t, page.Items[1].UnitPrice)
	assert.Equal(t, 2, page.Page)
}

func TestListReceivers_Empty(t *testing.T) {
	m := newRepoMocks()
	svc := NewQueryService(m.issuers, m.receivers, m.products)

	m.receivers.On("FindAllByTenant", context.Background(), testTenant, shared.DefaultFilter()).
		Return([]mdm.Receiver{}, int64(0), nil)

	page, err := svc.ListReceivers(context.Background(), testTenant, shared.DefaultFilter())

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
}
