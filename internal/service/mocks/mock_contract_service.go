package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/auco"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"
)

type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) List(ctx context.Context, limit, offset int) (*service.ListResult[model.Contract], error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Contract]), args.Error(1)
}

func (m *MockContractService) Get(ctx context.Context, id string) (*model.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractService) Create(ctx context.Context, in service.ContractInput) (*model.Contract, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractService) Update(ctx context.Context, id string, p service.ContractPatch) (*model.Contract, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContractService) Status(ctx context.Context, id string) (*model.ContractStatusView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContractStatusView), args.Error(1)
}

func (m *MockContractService) Render(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockContractService) ListParticipants(ctx context.Context, contractID string) ([]model.ContractParticipant, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContractParticipant), args.Error(1)
}

func (m *MockContractService) AddParticipant(ctx context.Context, in service.ContractParticipantInput) ([]model.ContractParticipant, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContractParticipant), args.Error(1)
}

type MockSignatureService struct {
	mock.Mock
}

func (m *MockSignatureService) List(ctx context.Context, f repository.SignatureFilter, limit, offset int) (*service.ListResult[model.Signature], error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Signature]), args.Error(1)
}

func (m *MockSignatureService) Get(ctx context.Context, id string) (*model.Signature, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Signature), args.Error(1)
}

func (m *MockSignatureService) Create(ctx context.Context, in service.SignatureInput) (*model.Signature, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Signature), args.Error(1)
}

func (m *MockSignatureService) Update(ctx context.Context, id string, p service.SignaturePatch) (*model.Signature, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Signature), args.Error(1)
}

func (m *MockSignatureService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSignatureService) Stats(ctx context.Context) (*model.SignatureStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureStats), args.Error(1)
}

type MockSigningService struct {
	mock.Mock
}

func (m *MockSigningService) SyncDocuments(ctx context.Context, codes []string) (*service.SyncResult, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func (m *MockSigningService) SyncSignatures(ctx context.Context) (*service.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func (m *MockSigningService) ListDocuments(ctx context.Context) ([]auco.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]auco.Document), args.Error(1)
}

func (m *MockSigningService) StartSignature(ctx context.Context, contractID string) (*service.StartSignatureResult, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartSignatureResult), args.Error(1)
}

func (m *MockSigningService) HandleWebhook(ctx context.Context, req service.WebhookRequest) service.WebhookResult {
	args := m.Called(ctx, req)
	return args.Get(0).(service.WebhookResult)
}

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) HandleWebhook(ctx context.Context, signature string, body []byte) (*service.VerificationResult, error) {
	args := m.Called(ctx, signature, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerificationResult), args.Error(1)
}
