// Package invoicing holds the business unit administration and invoice
// request use cases.
package invoicing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BusinessUnitService handles business unit, field mapping and ticket administration
type BusinessUnitService struct {
	units    invoicing.BusinessUnitRepository
	mappings invoicing.FieldMappingRepository
	tickets  invoicing.TicketRepository
	logger   *zap.Logger
}

// NewBusinessUnitService creates a new BusinessUnitService
func NewBusinessUnitService(
	units invoicing.BusinessUnitRepository,
	mappings invoicing.FieldMappingRepository,
	tickets invoicing.TicketRepository,
	log *zap.Logger,
) *BusinessUnitService {
	return &BusinessUnitService{
		units:    units,
		mappings: mappings,
		tickets:  tickets,
		logger:   log,
	}
}

// Get returns one business unit with its mappings
func (s *BusinessUnitService) Get(ctx context.Context, id uuid.UUID) (*BusinessUnitResponse, error) {
	bu, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBusinessUnitResponse(bu)
	return &resp, nil
}

// List returns every business unit
func (s *BusinessUnitService) List(ctx context.Context) ([]BusinessUnitResponse, error) {
	units, err := s.units.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BusinessUnitResponse, len(units))
	for i := range units {
		out[i] = ToBusinessUnitResponse(&units[i])
	}
	return out, nil
}

// Create creates a business unit without mappings
func (s *BusinessUnitService) Create(ctx context.Context, req BusinessUnitRequest) (*BusinessUnitResponse, error) {
	return s.CreateWithMappings(ctx, req, nil)
}

// CreateWithMappings creates a business unit and its initial mappings in one save
func (s *BusinessUnitService) CreateWithMappings(ctx context.Context, req BusinessUnitRequest, mappings map[string]string) (*BusinessUnitResponse, error) {
	exists, err := s.units.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invoicing.ErrBusinessUnitExists
	}

	bu, err := invoicing.NewBusinessUnit(req.attributes())
	if err != nil {
		return nil, err
	}
	if err := bu.AddMappings(mappings); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, bu); err != nil {
		return nil, err
	}

	logger.L(logger.Ensure(ctx, s.logger)).Info("business unit created",
		zap.String("business_unit_id", bu.ID.String()),
		zap.String("name", bu.Name),
		zap.Int("mappings", len(bu.Mappings)),
	)
	resp := ToBusinessUnitResponse(bu)
	return &resp, nil
}

// Update replaces the editable attributes of a business unit. Its mappings are kept.
func (s *BusinessUnitService) Update(ctx context.Context, id uuid.UUID, req BusinessUnitRequest) (*BusinessUnitResponse, error) {
	bu, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != bu.Name {
		other, err := s.units.FindByName(ctx, req.Name)
		switch {
		case err == nil && other.ID != bu.ID:
			return nil, invoicing.ErrBusinessUnitExists
		case err != nil && !errors.Is(err, invoicing.ErrBusinessUnitNotFound):
			return nil, err
		}
	}

	if err := bu.Update(req.attributes()); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, bu); err != nil {
		return nil, err
	}
	resp := ToBusinessUnitResponse(bu)
	return &resp, nil
}

// Delete removes a business unit together with its mappings and tickets
func (s *BusinessUnitService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.units.Delete(ctx, id); err != nil {
		return err
	}
	logger.L(logger.Ensure(ctx, s.logger)).Info("business unit deleted", zap.String("business_unit_id", id.String()))
	return nil
}

// GetFieldMappings returns the unit's source to standard lookup
func (s *BusinessUnitService) GetFieldMappings(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	if _, err := s.units.FindByID(ctx, id); err != nil {
		return nil, err
	}
	mappings, err := s.mappings.FindByBusinessUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	return invoicing.NewMappingSet(mappings).ToMap(), nil
}

// AddFieldMapping appends a mapping. A missing unit yields ErrBusinessUnitNotFound.
func (s *BusinessUnitService) AddFieldMapping(ctx context.Context, id uuid.UUID, req FieldMappingRequest) (*FieldMappingResponse, error) {
	mapping, err := invoicing.NewFieldMapping(id, req.SourceFieldName, req.StandardFieldName)
	if err != nil {
		return nil, err
	}
	if _, ok := invoicing.CanonicalStandardField(mapping.StandardFieldName); !ok {
		logger.L(logger.Ensure(ctx, s.logger)).Warn("mapping targets an unknown standard field and will be ignored",
			zap.String("business_unit_id", id.String()),
			zap.String("standard_field", mapping.StandardFieldName),
		)
	}
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, err
	}
	resp := ToFieldMappingResponse(mapping)
	return &resp, nil
}

// RemoveFieldMapping deletes one mapping of the unit
func (s *BusinessUnitService) RemoveFieldMapping(ctx context.Context, id, mappingID uuid.UUID) error {
	return s.mappings.Delete(ctx, id, mappingID)
}

// PutTicket stores or replaces the ticket payload for token
func (s *BusinessUnitService) PutTicket(ctx context.Context, businessUnitID uuid.UUID, token string, payload json.RawMessage) (*TicketResponse, error) {
	if _, err := s.units.FindByID(ctx, businessUnitID); err != nil {
		return nil, err
	}

	created := false
	ticket, err := s.tickets.FindByToken(ctx, businessUnitID, token)
	switch {
	case err == nil:
		if err := ticket.Replace(payload); err != nil {
			return nil, err
		}
	case errors.Is(err, invoicing.ErrTicketNotFound), errors.Is(err, shared.ErrNotFound):
		ticket, err = invoicing.NewTicket(businessUnitID, token, payload)
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, err
	}

	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, err
	}
	return &TicketResponse{
		ID:             ticket.ID,
		BusinessUnitID: ticket.BusinessUnitID,
		Token:          ticket.Token,
		Payload:        ticket.Payload,
		Created:        created,
	}, nil
}
