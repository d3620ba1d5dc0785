package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type MockRoyaltyReportRepository struct {
	mock.Mock
}

func (m *MockRoyaltyReportRepository) CreateWithRows(ctx context.Context, r *model.RoyaltyReport, royalties []model.RoyaltyRow, audience []model.AudienceRow) (*model.RoyaltyReport, error) {
	args := m.Called(ctx, r, royalties, audience)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RoyaltyReport), args.Error(1)
}

func (m *MockRoyaltyReportRepository) List(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.RoyaltyReport], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.RoyaltyReport]), args.Error(1)
}

func (m *MockRoyaltyReportRepository) FindByID(ctx context.Context, id string) (*model.RoyaltyReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RoyaltyReport), args.Error(1)
}

type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) Save(ctx context.Context, st *model.ArtistStatement, txs []model.StatementTransaction) (*model.ArtistStatement, error) {
	args := m.Called(ctx, st, txs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArtistStatement), args.Error(1)
}

func (m *MockStatementRepository) RecordImport(ctx context.Context, imp *model.StatementImport) error {
	return m.Called(ctx, imp).Error(0)
}

func (m *MockStatementRepository) ListByArtist(ctx context.Context, artistID string) ([]model.ArtistStatement, error) {
	args := m.Called(ctx, artistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ArtistStatement), args.Error(1)
}

func (m *MockStatementRepository) ListTransactions(ctx context.Context, statementID string) ([]model.StatementTransaction, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatementTransaction), args.Error(1)
}
