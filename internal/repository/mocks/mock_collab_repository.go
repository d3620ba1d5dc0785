package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) ListMessages(ctx context.Context, projectID string, pq repository.PageQuery) ([]model.ChatMessage, error) {
	args := m.Called(ctx, projectID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockChatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockChatRepository) MarkRead(ctx context.Context, projectID, readerID string) (int64, error) {
	args := m.Called(ctx, projectID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCalendarRepository struct {
	mock.Mock
}

func (m *MockCalendarRepository) List(ctx context.Context, f repository.EventFilter) ([]model.CalendarEvent, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarRepository) FindByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarRepository) Create(ctx context.Context, e *model.CalendarEvent) (*model.CalendarEvent, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarRepository) Update(ctx context.Context, id string, f repository.Fields) (*model.CalendarEvent, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarEvent), args.Error(1)
}

func (m *MockCalendarRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockFinanceRepository struct {
	mock.Mock
}

func (m *MockFinanceRepository) ListCategories(ctx context.Context, userID string) ([]model.FinanceCategory, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FinanceCategory), args.Error(1)
}

func (m *MockFinanceRepository) FindCategory(ctx context.Context, id string) (*model.FinanceCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceCategory), args.Error(1)
}

func (m *MockFinanceRepository) CreateCategory(ctx context.Context, c *model.FinanceCategory) (*model.FinanceCategory, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceCategory), args.Error(1)
}

func (m *MockFinanceRepository) ListTransactions(ctx context.Context, f repository.FinanceFilter, pq repository.PageQuery) (*repository.PageResult[model.FinanceTransaction], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.FinanceTransaction]), args.Error(1)
}

func (m *MockFinanceRepository) CreateTransaction(ctx context.Context, t *model.FinanceTransaction) (*model.FinanceTransaction, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceTransaction), args.Error(1)
}

func (m *MockFinanceRepository) DeleteTransaction(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockFinanceRepository) CategoryTotals(ctx context.Context, f repository.FinanceFilter) ([]model.CategoryTotal, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategoryTotal), args.Error(1)
}

type MockMusoRepository struct {
	mock.Mock
}

func (m *MockMusoRepository) Link(ctx context.Context, artistID, profileID string) (*model.MusoProfile, error) {
	args := m.Called(ctx, artistID, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MusoProfile), args.Error(1)
}

func (m *MockMusoRepository) ListProfiles(ctx context.Context) ([]model.MusoProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MusoProfile), args.Error(1)
}

func (m *MockMusoRepository) SaveProfileData(ctx context.Context, artistID string, popularity *int, data []byte) error {
	return m.Called(ctx, artistID, popularity, data).Error(0)
}
