package repository

import (
	"context"
	"time"

	"backoffice/internal/model"
)

type ChatRepository interface {
	ListMessages(ctx context.Context, projectID string, pq PageQuery) ([]model.ChatMessage, error)
	CreateMessage(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error)
	MarkRead(ctx context.Context, projectID, readerID string) (int64, error)
}

// EventFilter narrows calendar listings. Zero values are ignored.
type EventFilter struct {
	UserID   string
	ArtistID string
	From     time.Time
	To       time.Time
}

type CalendarRepository interface {
	List(ctx context.Context, f EventFilter) ([]model.CalendarEvent, error)
	FindByID(ctx context.Context, id string) (*model.CalendarEvent, error)
	Create(ctx context.Context, e *model.CalendarEvent) (*model.CalendarEvent, error)
	Update(ctx context.Context, id string, f Fields) (*model.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
}

// FinanceFilter narrows finance listings and summaries. Zero values are ignored.
type FinanceFilter struct {
	UserID   string
	ArtistID string
	From     time.Time
	To       time.Time
}

type FinanceRepository interface {
	ListCategories(ctx context.Context, userID string) ([]model.FinanceCategory, error)
	FindCategory(ctx context.Context, id string) (*model.FinanceCategory, error)
	CreateCategory(ctx context.Context, c *model.FinanceCategory) (*model.FinanceCategory, error)
	ListTransactions(ctx context.Context, f FinanceFilter, pq PageQuery) (*PageResult[model.FinanceTransaction], error)
	CreateTransaction(ctx context.Context, t *model.FinanceTransaction) (*model.FinanceTransaction, error)
	DeleteTransaction(ctx context.Context, id, userID string) error
	CategoryTotals(ctx context.Context, f FinanceFilter) ([]model.CategoryTotal, error)
}

type MusoRepository interface {
	Link(ctx context.Context, artistID, profileID string) (*model.MusoProfile, error)
	ListProfiles(ctx context.Context) ([]model.MusoProfile, error)
	SaveProfileData(ctx context.Context, artistID string, popularity *int, data []byte) error
}
