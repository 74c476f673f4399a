package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUnit(t *testing.T) *BusinessUnit {
	t.Helper()
	bu, err := NewBusinessUnit(BusinessUnitAttributes{
		Name:            "Empresa Diferente",
		RFCEmitter:      "XAXX010101000",
		EmitterName:     "Empresa Diferente S.A. de C.V.",
		DefaultCurrency: "MXN",
		Series:          "B",
	})
	require.NoError(t, err)
	return bu
}

func mustPayload(t *testing.T, raw string) TicketPayload {
	t.Helper()
	p, err := DecodeTicketPayload([]byte(raw))
	require.NoError(t, err)
	return p
}

func TestTransformer_Transform(t *testing.T) {
	tr := NewTransformer(FixedFolioGenerator("101234"))
	bu := newTestUnit(t)
	req := InvoiceRequest{
		RFC:         "XAXX010101000",
		Name:        "Cliente",
		PaymentForm: "01",
		CfdiUsage:   "G_03",
		TicketToken: "ticket-1",
	}

	t.Run("computes missing amount", func(t *testing.T) {
		payload := mustPayload(t, `{"items":[{"productCode":"X1","qty":2,"price":10.0}]}`)
		mappings := MappingSetFromMap(map[string]string{
			"productCode": "claveProdServ",
			"qty":         "cantidad",
			"price":       "valorUnitario",
		})

		inv, warnings, err := tr.Transform(req, bu, payload, mappings)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		require.Len(t, inv.Concepts, 1)
		c := inv.Concepts[0]
		assert.Equal(t, "X1", c.ProductCode)
		assert.Equal(t, 2, c.Quantity)
		assert.Equal(t, 10.0, c.UnitPrice)
		assert.Equal(t, 20.0, c.Amount)
	})

	t.Run("header comes from unit and request", func(t *testing.T) {
		inv, _, err := tr.Transform(req, bu, mustPayload(t, `{}`), MappingSetFromMap(nil))
		require.NoError(t, err)
		assert.Equal(t, "XAXX010101000", inv.IssuerRFC)
		assert.Equal(t, "Empresa Diferente S.A. de C.V.", inv.IssuerName)
		assert.Equal(t, "XAXX010101000", inv.ReceiverRFC)
		assert.Equal(t, "Cliente", inv.ReceiverName)
		assert.Equal(t, "G_03", inv.CfdiUsage)
		assert.Equal(t, "01", inv.PaymentForm)
		assert.Equal(t, PaymentMethodPUE, inv.PaymentMethod)
		assert.Equal(t, "MXN", inv.Currency)
		assert.Equal(t, "B", inv.Series)
		assert.Equal(t, "101234", inv.Folio)
		assert.NotNil(t, inv.Concepts)
		assert.Empty(t, inv.Concepts)
	})

	t.Run("explicit amount is kept", func(t *testing.T) {
		payload := mustPayload(t, `{"items":[{"qty":2,"price":1000,"total":1500}]}`)
		mappings := MappingSetFromMap(map[string]string{"qty": "cantidad", "price": "valorUnitario", "total": "importe"})
		inv, _, err := tr.Transform(req, bu, payload, mappings)
		require.NoError(t, err)
		assert.Equal(t, 1500.0, inv.Concepts[0].Amount)
	})

	t.Run("item order preserved and unknown standard ignored", func(t *testing.T) {
		payload := mustPayload(t, `{"items":[
			{"claveProducto":10101501,"concepto":"Uno","cantidadProducto":"1","precioUnitario":"5000","color":"red"},
			{"claveProducto":"10101501","concepto":"Dos","cantidadProducto":2.7,"precioUnitario":1000}
		]}`)
		mappings := MappingSetFromMap(map[string]string{
			"claveProducto":    "claveProdServ",
			"concepto":         "description",
			"cantidadProducto": "quantity",
			"precioUnitario":   "unitPrice",
			"color":            "colour",
		})
		inv, warnings, err := tr.Transform(req, bu, payload, mappings)
		require.NoError(t, err)
		require.Len(t, inv.Concepts, 2)
		assert.Equal(t, "Uno", inv.Concepts[0].Description)
		assert.Equal(t, "10101501", inv.Concepts[0].ProductCode)
		assert.Equal(t, 5000.0, inv.Concepts[0].Amount)
		assert.Equal(t, "Dos", inv.Concepts[1].Description)
		assert.Equal(t, 2, inv.Concepts[1].Quantity)
		assert.Equal(t, 2000.0, inv.Concepts[1].Amount)
		require.Len(t, warnings, 1)
		assert.Equal(t, "colour", warnings[0].Standard)
	})

	t.Run("items under another key yield no concepts", func(t *testing.T) {
		payload := mustPayload(t, `{"products":[{"qty":1}]}`)
		inv, _, err := tr.Transform(req, bu, payload, MappingSetFromMap(map[string]string{"qty": "cantidad"}))
		require.NoError(t, err)
		assert.Empty(t, inv.Concepts)
	})

	t.Run("missing inputs fail", func(t *testing.T) {
		_, _, err := tr.Transform(req, nil, mustPayload(t, `{}`), nil)
		assert.ErrorIs(t, err, ErrBusinessUnitNotFound)

		_, _, err = tr.Transform(req, bu, nil, nil)
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})
}

func TestMappingSet_LastWins(t *testing.T) {
	set := NewMappingSet([]FieldMapping{
		{SourceFieldName: "qty", StandardFieldName: "importe"},
		{SourceFieldName: "price", StandardFieldName: "valorUnitario"},
		{SourceFieldName: "qty", StandardFieldName: "cantidad"},
	})
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []MappingPair{{"qty", "cantidad"}, {"price", "valorUnitario"}}, set.Pairs())
	assert.Equal(t, map[string]string{"qty": "cantidad", "price": "valorUnitario"}, set.ToMap())
}

func TestUUIDFolioGenerator(t *testing.T) {
	folio := UUIDFolioGenerator{}.Next()
	assert.Regexp(t, `^10\d{1,4}$`, folio)

	folio = RandomFolioGenerator{}.Next()
	assert.Regexp(t, `^[1-9]\d{4}$`, folio)
}

func TestAsInt_Truncates(t *testing.T) {
	assert.Equal(t, 2, asInt("2"))
	assert.Equal(t, 2, asInt(" 2.9 "))
	assert.Equal(t, -1, asInt("-1.5"))
	assert.Equal(t, 0, asInt("dos"))
	assert.Equal(t, 3, asInt(3.7))
}
