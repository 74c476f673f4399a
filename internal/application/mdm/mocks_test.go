package mdm

import (
	"context"

	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIssuerRepository is a mock implementation of mdm.IssuerRepository
type MockIssuerRepository struct {
	mock.Mock
}

func (m *MockIssuerRepository) FindByID(ctx context.Context, id uuid.UUID) (*mdm.Issuer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Issuer), args.Error(1)
}

func (m *MockIssuerRepository) FindByTenantAndRFC(ctx context.Context, tenantID, rfc string) (*mdm.Issuer, error) {
	args := m.Called(ctx, tenantID, rfc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Issuer), args.Error(1)
}

func (m *MockIssuerRepository) FindFirstByTenant(ctx context.Context, tenantID string) (*mdm.Issuer, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Issuer), args.Error(1)
}

func (m *MockIssuerRepository) FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]mdm.Issuer, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mdm.Issuer), args.Get(1).(int64), args.Error(2)
}

func (m *MockIssuerRepository) Save(ctx context.Context, issuer *mdm.Issuer) error {
	args := m.Called(ctx, issuer)
	return args.Error(0)
}

// MockReceiverRepository is a mock implementation of mdm.ReceiverRepository
type MockReceiverRepository struct {
	mock.Mock
}

func (m *MockReceiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*mdm.Receiver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Receiver), args.Error(1)
}

func (m *MockReceiverRepository) FindByTenantAndRFC(ctx context.Context, tenantID, rfc string) (*mdm.Receiver, error) {
	args := m.Called(ctx, tenantID, rfc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Receiver), args.Error(1)
}

func (m *MockReceiverRepository) FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]mdm.Receiver, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mdm.Receiver), args.Get(1).(int64), args.Error(2)
}

func (m *MockReceiverRepository) Save(ctx context.Context, receiver *mdm.Receiver) error {
	args := m.Called(ctx, receiver)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of mdm.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*mdm.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Product), args.Error(1)
}

func (m *MockProductRepository) FindByTenantAndInternalCode(ctx context.Context, tenantID, internalCode string) (*mdm.Product, error) {
	args := m.Called(ctx, tenantID, internalCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mdm.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllByTenant(ctx context.Context, tenantID string, filter shared.Filter) ([]mdm.Product, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mdm.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *mdm.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// fakeUnitOfWork runs the callback against fixed repositories
type fakeUnitOfWork struct {
	repos mdm.Repositories
	calls int
}

func (u *fakeUnitOfWork) Do(_ context.Context, fn func(tx mdm.Repositories) error) error {
	u.calls++
	return fn(u.repos)
}

// MockLocker is a mock implementation of shared.Locker
type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

// MockPublisher is a mock implementation of shared.MessagePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	args := m.Called(ctx, topic, data, attrs)
	return args.String(0), args.Error(1)
}

type repoMocks struct {
	issuers   *MockIssuerRepository
	receivers *MockReceiverRepository
	products  *MockProductRepository
	uow       *fakeUnitOfWork
}

func newRepoMocks() *repoMocks {
	m := &repoMocks{
		issuers:   new(MockIssuerRepository),
		receivers: new(MockReceiverRepository),
		products:  new(MockProductRepository),
	}
	m.uow = &fakeUnitOfWork{repos: mdm.Repositories{
		Issuers:   m.issuers,
		Receivers: m.receivers,
		Products:  m.products,
	}}
	return m
}
