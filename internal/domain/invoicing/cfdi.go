package invoicing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// CfdiRequest asks for a CFDI document for a customer and ticket
type CfdiRequest struct {
	CustomerRFC string `json:"customerRfc"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PostalCode  string `json:"postalCode"`
	TicketToken string `json:"ticketToken"`
	PaymentForm string `json:"paymentForm"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	TaxRegime   string `json:"taxRegime"`
	CfdiUsage   string `json:"cfdiUsage"`
}

// CfdiDocument is the CFDI payload assembled from golden records
type CfdiDocument struct {
	IssuerRFC     string        `json:"issuerRfc"`
	IssuerName    string        `json:"issuerName"`
	ReceiverRFC   string        `json:"receiverRfc"`
	ReceiverName  string        `json:"receiverName"`
	CfdiUsage     string        `json:"cfdiUsage"`
	PaymentMethod string        `json:"paymentMethod"`
	PaymentForm   string        `json:"paymentForm"`
	Currency      string        `json:"currency"`
	Series        string        `json:"series"`
	Folio         string        `json:"folio"`
	Concepts      []CfdiConcept `json:"concepts"`
}

// CfdiConcept is one CFDI line
type CfdiConcept struct {
	ProdServCode string  `json:"prodServCode"`
	Description  string  `json:"description"`
	Quantity     int     `json:"quantity"`
	Unit         string  `json:"unit"`
	UnitPrice    float64 `json:"unitPrice"`
	Amount       float64 `json:"amount"`
}

// CatalogProduct is a product resolved for a ticket
type CatalogProduct struct {
	ProdServCode string
	Description  string
	Unit         string
	UnitPrice    decimal.Decimal
}

// ProductCatalog resolves the products bought on a ticket
type ProductCatalog interface {
	ProductsForTicket(ctx context.Context, ticketToken string) ([]CatalogProduct, error)
}

// SimulatedCatalog derives products from letters in the ticket token
type SimulatedCatalog struct{}

// ProductsForTicket returns a consulting line for tokens containing "A", a
// development line for tokens containing "B", and a general service otherwise
func (SimulatedCatalog) ProductsForTicket(_ context.Context, ticketToken string) ([]CatalogProduct, error) {
	var products []CatalogProduct
	if strings.Contains(ticketToken, "A") {
		products = append(products, CatalogProduct{"10101501", "Consulting service", "Service", decimal.NewFromInt(5000)})
	}
	if strings.Contains(ticketToken, "B") {
		products = append(products, CatalogProduct{"43232408", "Software development", "Hour", decimal.NewFromInt(1000)})
	}
	if len(products) == 0 {
		products = append(products, CatalogProduct{"80141607", "General service", "N/A", decimal.NewFromInt(1500)})
	}
	return products, nil
}

// ConceptFromProduct bills one unit of p
func ConceptFromProduct(p CatalogProduct) CfdiConcept {
	price := p.UnitPrice.InexactFloat64()
	return CfdiConcept{
		ProdServCode: p.ProdServCode,
		Description:  p.Description,
		Quantity:     1,
		Unit:         p.Unit,
		UnitPrice:    price,
		Amount:       price,
	}
}
