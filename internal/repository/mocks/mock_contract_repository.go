package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Contract], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Contract]), args.Error(1)
}

func (m *MockContractRepository) FindByID(ctx context.Context, id string) (*model.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByAucoDocumentID(ctx context.Context, documentID string) (*model.Contract, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractRepository) CreateWithParticipants(ctx context.Context, c *model.Contract, parts []model.ContractParticipant) (string, error) {
	args := m.Called(ctx, c, parts)
	return args.String(0), args.Error(1)
}

func (m *MockContractRepository) Update(ctx context.Context, id string, u repository.ContractUpdate) error {
	return m.Called(ctx, id, u).Error(0)
}

func (m *MockContractRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContractRepository) ListParticipants(ctx context.Context, contractID string) ([]model.ContractParticipant, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContractParticipant), args.Error(1)
}

func (m *MockContractRepository) AddParticipant(ctx context.Context, p model.ContractParticipant) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockContractRepository) LoadBundle(ctx context.Context, id string) (*model.ContractBundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContractBundle), args.Error(1)
}

func (m *MockContractRepository) MarkSent(ctx context.Context, id, documentCode, pdfKey string) error {
	return m.Called(ctx, id, documentCode, pdfKey).Error(0)
}

func (m *MockContractRepository) MarkSignedIfComplete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) List(ctx context.Context, f repository.SignatureFilter, pq repository.PageQuery) (*repository.PageResult[model.Signature], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Signature]), args.Error(1)
}

func (m *MockSignatureRepository) FindByID(ctx context.Context, id string) (*model.Signature, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Signature), args.Error(1)
}

func (m *MockSignatureRepository) Create(ctx context.Context, s *model.Signature) (*model.Signature, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Signature), args.Error(1)
}

func (m *MockSignatureRepository) Update(ctx context.Context, id string, status *string, archived *bool) (*model.Signature, error) {
	args := m.Called(ctx, id, status, archived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Signature), args.Error(1)
}

func (m *MockSignatureRepository) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSignatureRepository) Stats(ctx context.Context) (*model.SignatureStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureStats), args.Error(1)
}

func (m *MockSignatureRepository) ListByContract(ctx context.Context, contractID string) ([]model.Signature, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Signature), args.Error(1)
}

func (m *MockSignatureRepository) DistinctRequestIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSignatureRepository) Upsert(ctx context.Context, s *model.Signature) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *MockSignatureRepository) UpdateStatusByRequest(ctx context.Context, requestID, status string, documentURL *string) (int64, error) {
	args := m.Called(ctx, requestID, status, documentURL)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSignatureRepository) UpdateSignerStatus(ctx context.Context, requestID, email, status string) (int64, error) {
	args := m.Called(ctx, requestID, email, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSignatureRepository) ContractIDsByRequest(ctx context.Context, requestID string) ([]string, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
