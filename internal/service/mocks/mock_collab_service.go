package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) List(ctx context.Context, projectID string, limit, offset int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, projectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockChatService) Send(ctx context.Context, projectID, senderID string, in service.ChatInput) (*model.ChatMessage, error) {
	args := m.Called(ctx, projectID, senderID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockChatService) MarkRead(ctx context.Context, projectID, readerID string) (int64, error) {
	args := m.Called(ctx, projectID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) List(ctx context.Context, f repository.EventFilter) ([]model.CalendarEvent, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarService) Create(ctx context.Context, userID string, in service.EventInput) (*model.CalendarEvent, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarService) Update(ctx context.Context, userID, id string, patch map[string]any) (*model.CalendarEvent, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type MockFinanceService struct {
	mock.Mock
}

func (m *MockFinanceService) ListCategories(ctx context.Context, userID string) ([]model.FinanceCategory, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FinanceCategory), args.Error(1)
}

func (m *MockFinanceService) CreateCategory(ctx context.Context, userID string, in service.CategoryInput) (*model.FinanceCategory, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceCategory), args.Error(1)
}

func (m *MockFinanceService) ListTransactions(ctx context.Context, f repository.FinanceFilter, limit, offset int) (*service.ListResult[model.FinanceTransaction], error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.FinanceTransaction]), args.Error(1)
}

func (m *MockFinanceService) CreateTransaction(ctx context.Context, userID string, in service.FinanceTransactionInput) (*model.FinanceTransaction, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceTransaction), args.Error(1)
}

func (m *MockFinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockFinanceService) Summary(ctx context.Context, f repository.FinanceFilter) (*model.FinanceSummary, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceSummary), args.Error(1)
}

type MockMusoService struct {
	mock.Mock
}

func (m *MockMusoService) Credits(ctx context.Context, profileID string, limit, offset int) (json.RawMessage, error) {
	args := m.Called(ctx, profileID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockMusoService) Link(ctx context.Context, artistID, profileID string) (*model.MusoProfile, error) {
	args := m.Called(ctx, artistID, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MusoProfile), args.Error(1)
}

func (m *MockMusoService) Sync(ctx context.Context) (*service.MusoSyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MusoSyncResult), args.Error(1)
}
