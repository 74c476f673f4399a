package invoicing

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBusinessUnitRepository is a mock implementation of invoicing.BusinessUnitRepository
type MockBusinessUnitRepository struct {
	mock.Mock
}

func (m *MockBusinessUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.BusinessUnit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.BusinessUnit), args.Error(1)
}

func (m *MockBusinessUnitRepository) FindByName(ctx context.Context, name string) (*invoicing.BusinessUnit, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.BusinessUnit), args.Error(1)
}

func (m *MockBusinessUnitRepository) FindAll(ctx context.Context) ([]invoicing.BusinessUnit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]invoicing.BusinessUnit), args.Error(1)
}

func (m *MockBusinessUnitRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockBusinessUnitRepository) Save(ctx context.Context, bu *invoicing.BusinessUnit) error {
	args := m.Called(ctx, bu)
	return args.Error(0)
}

func (m *MockBusinessUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFieldMappingRepository is a mock implementation of invoicing.FieldMappingRepository
type MockFieldMappingRepository struct {
	mock.Mock
}

func (m *MockFieldMappingRepository) FindByBusinessUnit(ctx context.Context, businessUnitID uuid.UUID) ([]invoicing.FieldMapping, error) {
	args := m.Called(ctx, businessUnitID)
	return args.Get(0).([]invoicing.FieldMapping), args.Error(1)
}

func (m *MockFieldMappingRepository) Save(ctx context.Context, mapping *invoicing.FieldMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockFieldMappingRepository) Delete(ctx context.Context, businessUnitID, mappingID uuid.UUID) error {
	args := m.Called(ctx, businessUnitID, mappingID)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of invoicing.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) FindByToken(ctx context.Context, businessUnitID uuid.UUID, token string) (*invoicing.Ticket, error) {
	args := m.Called(ctx, businessUnitID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Save(ctx context.Context, ticket *invoicing.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

// MockTicketProvider is a mock implementation of invoicing.TicketProvider
type MockTicketProvider struct {
	mock.Mock
}

func (m *MockTicketProvider) GetTicketPayload(ctx context.Context, token string, businessUnitID uuid.UUID) (invoicing.TicketPayload, error) {
	args := m.Called(ctx, token, businessUnitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(invoicing.TicketPayload), args.Error(1)
}

func newTestUnit(name string) *invoicing.BusinessUnit {
	bu, err := invoicing.NewBusinessUnit(invoicing.BusinessUnitAttributes{
		Name:            name,
		RFCEmitter:      "FACW951024M98",
		EmitterName:     "Empresa Estándar S.A. de C.V.",
		DefaultCurrency: "MXN",
		Series:          "A",
	})
	if err != nil {
		panic(err)
	}
	return bu
}
