package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

type MockRoyaltyService struct {
	mock.Mock
}

func (m *MockRoyaltyService) Upload(ctx context.Context, in service.ReportUpload) (*service.ReportUploadResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportUploadResult), args.Error(1)
}

func (m *MockRoyaltyService) List(ctx context.Context, userID string, limit, offset int) (*service.ListResult[model.RoyaltyReport], error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.RoyaltyReport]), args.Error(1)
}

func (m *MockRoyaltyService) Get(ctx context.Context, userID, id string) (*model.RoyaltyReport, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RoyaltyReport), args.Error(1)
}

type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) Import(ctx context.Context, in service.StatementUpload) (*service.StatementImportResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatementImportResult), args.Error(1)
}

func (m *MockStatementService) ListByArtist(ctx context.Context, artistID string) ([]model.ArtistStatement, error) {
	args := m.Called(ctx, artistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ArtistStatement), args.Error(1)
}

func (m *MockStatementService) ListTransactions(ctx context.Context, statementID string) ([]model.StatementTransaction, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatementTransaction), args.Error(1)
}
