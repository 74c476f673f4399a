// Package seed loads the reference business units and their sample tickets.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixed identifiers so clients can address the reference units across restarts.
var (
	StandardUnitID    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DifferentUnitID   = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	AlternativeUnitID = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

type referenceUnit struct {
	id       uuid.UUID
	attrs    invoicing.BusinessUnitAttributes
	mappings map[string]string
	token    string
	ticket   map[string]any
}

func line(fields [6]string, code, description string, qty int, unit string, price, total float64) map[string]any {
	return map[string]any{
		fields[0]: code,
		fields[1]: description,
		fields[2]: qty,
		fields[3]: unit,
		fields[4]: price,
		fields[5]: total,
	}
}

func lines(fields [6]string) []any {
	return []any{
		line(fields, "10101501", "Servicio de consultoría", 1, "Servicio", 5000, 5000),
		line(fields, "10101501", "Desarrollo de software", 2, "Hora", 1000, 2000),
	}
}

func mappingsFor(fields [6]string) map[string]string {
	standard := [6]string{"claveProdServ", "descripcion", "cantidad", "unidad", "valorUnitario", "importe"}
	m := make(map[string]string, len(fields))
	for i, f := range fields {
		m[f] = standard[i]
	}
	return m
}

func referenceUnits() []referenceUnit {
	standard := [6]string{"claveProdServ", "descripcion", "cantidad", "unidad", "valorUnitario", "importe"}
	different := [6]string{"productCode", "productName", "qty", "unit", "price", "total"}
	alternative := [6]string{"claveProducto", "concepto", "cantidadProducto", "unidadMedida", "precioUnitario", "precioTotal"}

	return []referenceUnit{
		{
			id: StandardUnitID,
			attrs: invoicing.BusinessUnitAttributes{
				Name:            "Business Unit 1",
				Description:     "Sample business unit with standard field names",
				RFCEmitter:      "FACW951024M98",
				EmitterName:     "Empresa Estándar S.A. de C.V.",
				DefaultCurrency: "MXN",
				Series:          "A",
			},
			mappings: mappingsFor(standard),
			token:    "ticket-123",
			ticket:   map[string]any{"ticketId": "123456", "fecha": "2023-04-23", "items": lines(standard)},
		},
		{
			id: DifferentUnitID,
			attrs: invoicing.BusinessUnitAttributes{
				Name:            "Business Unit 2",
				Description:     "Sample business unit with different field names",
				RFCEmitter:      "XAXX010101000",
				EmitterName:     "Empresa Diferente S.A. de C.V.",
				DefaultCurrency: "MXN",
				Series:          "B",
			},
			mappings: mappingsFor(different),
			token:    "ticket-456",
			ticket:   map[string]any{"id": "456789", "date": "2023-04-23", "products": lines(different)},
		},
		{
			id: AlternativeUnitID,
			attrs: invoicing.BusinessUnitAttributes{
				Name:            "Business Unit 3",
				Description:     "Sample business unit with another set of field names",
				RFCEmitter:      "FACW951024M98",
				EmitterName:     "Empresa Alternativa S.A. de C.V.",
				DefaultCurrency: "MXN",
				Series:          "C",
			},
			mappings: mappingsFor(alternative),
			token:    "ticket-789",
			ticket:   map[string]any{"folio": "789012", "fechaEmision": "2023-04-23", "lineas": lines(alternative)},
		},
	}
}

// Seeder creates missing reference data. Existing rows are left untouched.
type Seeder struct {
	units   invoicing.BusinessUnitRepository
	tickets invoicing.TicketRepository
	logger  *zap.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(units invoicing.BusinessUnitRepository, tickets invoicing.TicketRepository, logger *zap.Logger) *Seeder {
	return &Seeder{units: units, tickets: tickets, logger: logger}
}

// Run seeds every reference unit and ticket that does not exist yet.
func (s *Seeder) Run(ctx context.Context) error {
	for _, ref := range referenceUnits() {
		unitID, err := s.ensureUnit(ctx, ref)
		if err != nil {
			return err
		}
		if err := s.ensureTicket(ctx, unitID, ref); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) ensureUnit(ctx context.Context, ref referenceUnit) (uuid.UUID, error) {
	existing, err := s.units.FindByName(ctx, ref.attrs.Name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, invoicing.ErrBusinessUnitNotFound) {
		return uuid.Nil, fmt.Errorf("seed: lookup business unit %q: %w", ref.attrs.Name, err)
	}

	bu, err := invoicing.NewBusinessUnit(ref.attrs)
	if err != nil {
		return uuid.Nil, err
	}
	bu.ID = ref.id
	if err := bu.AddMappings(ref.mappings); err != nil {
		return uuid.Nil, err
	}
	if err := s.units.Save(ctx, bu); err != nil {
		return uuid.Nil, fmt.Errorf("seed: save business unit %q: %w", ref.attrs.Name, err)
	}

	s.logger.Info("seeded business unit",
		zap.String("business_unit_id", bu.ID.String()),
		zap.String("name", bu.Name),
		zap.Int("mappings", len(bu.Mappings)),
	)
	return bu.ID, nil
}

func (s *Seeder) ensureTicket(ctx context.Context, unitID uuid.UUID, ref referenceUnit) error {
	_, err := s.tickets.FindByToken(ctx, unitID, ref.token)
	if err == nil {
		return nil
	}
	if !errors.Is(err, invoicing.ErrTicketNotFound) {
		return fmt.Errorf("seed: lookup ticket %q: %w", ref.token, err)
	}

	payload, err := json.Marshal(ref.ticket)
	if err != nil {
		return err
	}
	ticket, err := invoicing.NewTicket(unitID, ref.token, payload)
	if err != nil {
		return err
	}
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return fmt.Errorf("seed: save ticket %q: %w", ref.token, err)
	}

	s.logger.Info("seeded ticket", zap.String("business_unit_id", unitID.String()), zap.String("token", ref.token))
	return nil
}
