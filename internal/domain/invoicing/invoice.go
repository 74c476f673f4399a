package invoicing

import "github.com/google/uuid"

// Fixed invoice defaults
const (
	PaymentMethodPUE = "PUE"
	CurrencyMXN      = "MXN"
)

// InvoiceRequest is a customer's request to invoice a ticket, in the wire
// format sent by the self-invoicing front ends
type InvoiceRequest struct {
	RFC            string    `json:"rfc"`
	Name           string    `json:"nombre"`
	Email          string    `json:"correo"`
	PostalCode     string    `json:"cp"`
	PaymentForm    string    `json:"formaPago"`
	TicketToken    string    `json:"tokenTicket"`
	TaxRegime      string    `json:"regimenFiscal"`
	CfdiUsage      string    `json:"usoCfdi"`
	BusinessUnitID uuid.UUID `json:"unidadNegocio"`
}

// StandardInvoice is the canonical invoice produced from a ticket
type StandardInvoice struct {
	IssuerRFC     string           `json:"rfcEmisor"`
	IssuerName    string           `json:"nombreEmisor"`
	ReceiverRFC   string           `json:"rfcReceptor"`
	ReceiverName  string           `json:"nombreReceptor"`
	CfdiUsage     string           `json:"usoCfdi"`
	PaymentForm   string           `json:"formaPago"`
	PaymentMethod string           `json:"metodoPago"`
	Currency      string           `json:"moneda"`
	Series        string           `json:"serie"`
	Folio         string           `json:"folio"`
	Concepts      []InvoiceConcept `json:"conceptos"`
}

// InvoiceConcept is one invoice line
type InvoiceConcept struct {
	ProductCode string  `json:"claveProdServ"`
	Description string  `json:"descripcion"`
	Quantity    int     `json:"cantidad"`
	Unit        string  `json:"unidad"`
	UnitPrice   float64 `json:"valorUnitario"`
	Amount      float64 `json:"importe"`
}
