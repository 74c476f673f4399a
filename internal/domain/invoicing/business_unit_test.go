package invoicing

import (
	"context"
	"testing"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessUnit_Validation(t *testing.T) {
	_, err := NewBusinessUnit(BusinessUnitAttributes{Name: "x", RFCEmitter: "r", EmitterName: "e", DefaultCurrency: "MXN"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Contains(t, err.Error(), "series")

	bu, err := NewBusinessUnit(BusinessUnitAttributes{
		Name: " Tienda ", RFCEmitter: "facw951024m98", EmitterName: "Tienda SA", DefaultCurrency: "mxn", Series: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tienda", bu.Name)
	assert.Equal(t, "FACW951024M98", bu.RFCEmitter)
	assert.Equal(t, "MXN", bu.DefaultCurrency)
	assert.NotEqual(t, uuid.Nil, bu.ID)
}

func TestBusinessUnit_Mappings(t *testing.T) {
	bu := newTestUnit(t)
	require.NoError(t, bu.AddMappings(map[string]string{"qty": "cantidad", "price": "valorUnitario"}))
	require.Len(t, bu.Mappings, 2)
	assert.Equal(t, "price", bu.Mappings[0].SourceFieldName)
	assert.Equal(t, bu.ID, bu.Mappings[0].BusinessUnitID)

	_, err := bu.AddMapping(" ", "cantidad")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, bu.RemoveMapping(bu.Mappings[0].ID))
	assert.Equal(t, map[string]string{"qty": "cantidad"}, bu.MappingSet().ToMap())
	assert.ErrorIs(t, bu.RemoveMapping(uuid.New()), ErrMappingNotFound)
}

func TestCanonicalStandardField(t *testing.T) {
	got, ok := CanonicalStandardField("unitPrice")
	assert.True(t, ok)
	assert.Equal(t, StandardUnitPrice, got)

	got, ok = CanonicalStandardField("importe")
	assert.True(t, ok)
	assert.Equal(t, StandardAmount, got)

	_, ok = CanonicalStandardField("colour")
	assert.False(t, ok)
}

func TestSimulatedCatalog(t *testing.T) {
	ctx := context.Background()
	cat := SimulatedCatalog{}

	products, err := cat.ProductsForTicket(ctx, "TKT-AB")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "10101501", products[0].ProdServCode)
	assert.Equal(t, "43232408", products[1].ProdServCode)

	products, err = cat.ProductsForTicket(ctx, "xyz")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "80141607", products[0].ProdServCode)

	concept := ConceptFromProduct(products[0])
	assert.Equal(t, 1, concept.Quantity)
	assert.Equal(t, 1500.0, concept.UnitPrice)
	assert.Equal(t, concept.UnitPrice, concept.Amount)
}

func TestNewTicket(t *testing.T) {
	_, err := NewTicket(uuid.New(), "t-1", []byte(`[1,2]`))
	assert.ErrorIs(t, err, shared.ErrInvalidPayload)

	_, err = NewTicket(uuid.New(), "  ", []byte(`{}`))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	tk, err := NewTicket(uuid.New(), "t-1", []byte(`{"items":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "t-1", tk.Token)
}
