package invoicing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemsKey is where line items are read from in a ticket payload
const ItemsKey = "items"

// TransformWarning reports a mapping that could not be applied
type TransformWarning struct {
	Item     int
	Source   string
	Standard string
	Reason   string
}

// Transformer turns ticket payloads into standard invoices using a business
// unit's field mappings
type Transformer struct {
	folios FolioGenerator
}

// NewTransformer creates a transformer. A nil generator falls back to UUIDFolioGenerator.
func NewTransformer(folios FolioGenerator) *Transformer {
	if folios == nil {
		folios = UUIDFolioGenerator{}
	}
	return &Transformer{folios: folios}
}

// Transform builds the invoice for req. It fails with ErrBusinessUnitNotFound
// or ErrTicketNotFound when either input is missing.
func (t *Transformer) Transform(req InvoiceRequest, bu *BusinessUnit, payload TicketPayload, mappings *MappingSet) (*StandardInvoice, []TransformWarning, error) {
	if bu == nil {
		return nil, nil, ErrBusinessUnitNotFound
	}
	if payload == nil {
		return nil, nil, ErrTicketNotFound
	}

	invoice := &StandardInvoice{
		IssuerRFC:     bu.RFCEmitter,
		IssuerName:    bu.EmitterName,
		ReceiverRFC:   req.RFC,
		ReceiverName:  req.Name,
		CfdiUsage:     req.CfdiUsage,
		PaymentForm:   req.PaymentForm,
		PaymentMethod: PaymentMethodPUE,
		Currency:      bu.DefaultCurrency,
		Series:        bu.Series,
		Folio:         t.folios.Next(),
		Concepts:      []InvoiceConcept{},
	}

	items, ok := payload[ItemsKey].([]any)
	if !ok {
		return invoice, nil, nil
	}

	var warnings []TransformWarning
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			warnings = append(warnings, TransformWarning{Item: i, Reason: "item is not an object"})
			continue
		}
		concept, w := mapConcept(i, item, mappings)
		warnings = append(warnings, w...)
		invoice.Concepts = append(invoice.Concepts, concept)
	}
	return invoice, warnings, nil
}

func mapConcept(index int, item map[string]any, mappings *MappingSet) (InvoiceConcept, []TransformWarning) {
	var concept InvoiceConcept
	var warnings []TransformWarning

	for _, pair := range mappings.Pairs() {
		value, present := item[pair.Source]
		if !present {
			continue
		}
		standard, known := CanonicalStandardField(pair.Standard)
		if !known {
			warnings = append(warnings, TransformWarning{index, pair.Source, pair.Standard, "unknown standard field"})
			continue
		}
		switch standard {
		case StandardProductCode:
			concept.ProductCode = asText(value)
		case StandardDescription:
			concept.Description = asText(value)
		case StandardQuantity:
			concept.Quantity = asInt(value)
		case StandardUnit:
			concept.Unit = asText(value)
		case StandardUnitPrice:
			concept.UnitPrice = asFloat(value)
		case StandardAmount:
			concept.Amount = asFloat(value)
		}
	}

	if concept.Amount == 0 && concept.Quantity > 0 && concept.UnitPrice > 0 {
		amount, _ := decimal.NewFromInt(int64(concept.Quantity)).
			Mul(decimal.NewFromFloat(concept.UnitPrice)).
			Float64()
		concept.Amount = amount
	}
	return concept, warnings
}

func asText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asInt truncates fractional quantities toward zero
func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return int(math.Trunc(f))
	case float64:
		return int(math.Trunc(x))
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return int(math.Trunc(f))
	default:
		return 0
	}
}
