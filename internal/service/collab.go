package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"backoffice/internal/chat"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const maxChatContent = 4000

var chatTypes = []string{"text", "file", "system"}

type ChatInput struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ChatService stores team chat messages and publishes them for live delivery.
type ChatService interface {
	List(ctx context.Context, projectID string, limit, offset int) ([]model.ChatMessage, error)
	Send(ctx context.Context, projectID, senderID string, in ChatInput) (*model.ChatMessage, error)
	// MarkRead flags every message in the project not sent by readerID as read.
	MarkRead(ctx context.Context, projectID, readerID string) (int64, error)
}

type chatService struct {
	repo repository.ChatRepository
	bus  chat.Bus
	log  *logger.Logger
}

func NewChatService(repo repository.ChatRepository, bus chat.Bus, log *logger.Logger) ChatService {
	if log == nil {
		log = logger.Nop()
	}
	return &chatService{repo: repo, bus: bus, log: log}
}

func (s *chatService) List(ctx context.Context, projectID string, limit, offset int) ([]model.ChatMessage, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, invalid("project id is required")
	}
	limit, offset = normalizePage(limit, offset, 100, 500)
	return s.repo.ListMessages(ctx, projectID, repository.PageQuery{Limit: limit, Offset: offset})
}

func (s *chatService) Send(ctx context.Context, projectID, senderID string, in ChatInput) (*model.ChatMessage, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, invalid("project id is required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalid("content is required")
	}
	if utf8.RuneCountInString(content) > maxChatContent {
		return nil, invalid("content exceeds %d characters", maxChatContent)
	}
	typ := orDefault(in.Type, "text")
	if !oneOf(typ, chatTypes...) {
		return nil, invalid("type must be one of %s", strings.Join(chatTypes, ", "))
	}
	msg, err := s.repo.CreateMessage(ctx, &model.ChatMessage{
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
		Type:      typ,
	})
	if err != nil {
		return nil, fmt.Errorf("store chat message: %w", err)
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, *msg); err != nil {
			s.log.Warn("publish chat message failed", "project_id", projectID, "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, projectID, readerID string) (int64, error) {
	if strings.TrimSpace(projectID) == "" {
		return 0, invalid("project id is required")
	}
	return s.repo.MarkRead(ctx, projectID, readerID)
}

// EventInput is a calendar entry as submitted by clients.
type EventInput struct {
	ArtistID    string  `json:"artist_id"`
	ProjectID   *string `json:"project_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	AllDay      bool    `json:"all_day"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

// CalendarService manages scheduled events.
type CalendarService interface {
	List(ctx context.Context, f repository.EventFilter) ([]model.CalendarEvent, error)
	Create(ctx context.Context, userID string, in EventInput) (*model.CalendarEvent, error)
	Update(ctx context.Context, userID, id string, patch map[string]any) (*model.CalendarEvent, error)
	Delete(ctx context.Context, userID, id string) error
}

type calendarService struct {
	repo repository.CalendarRepository
}

func NewCalendarService(repo repository.CalendarRepository) CalendarService {
	return &calendarService{repo: repo}
}

var eventFields = map[string]fieldKind{
	"title":       kindText,
	"artist_id":   kindText,
	"project_id":  kindNullText,
	"description": kindNullText,
	"category":    kindNullText,
	"all_day":     kindBool,
	"start_time":  kindTime,
	"end_time":    kindTime,
}

func (s *calendarService) List(ctx context.Context, f repository.EventFilter) ([]model.CalendarEvent, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, invalid("to must not precede from")
	}
	return s.repo.List(ctx, f)
}

func (s *calendarService) Create(ctx context.Context, userID string, in EventInput) (*model.CalendarEvent, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.ArtistID) == "" {
		return nil, invalid("title and artist_id are required")
	}
	if strings.TrimSpace(in.StartTime) == "" || strings.TrimSpace(in.EndTime) == "" {
		return nil, invalid("start_time and end_time are required")
	}
	start, err := ParseTime(in.StartTime)
	if err != nil {
		return nil, invalid("start_time must be RFC3339 or YYYY-MM-DD")
	}
	end, err := ParseTime(in.EndTime)
	if err != nil {
		return nil, invalid("end_time must be RFC3339 or YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, invalid("end_time must not precede start_time")
	}
	return s.repo.Create(ctx, &model.CalendarEvent{
		UserID:      userID,
		ArtistID:    strings.TrimSpace(in.ArtistID),
		ProjectID:   trimPtr(in.ProjectID),
		Title:       strings.TrimSpace(in.Title),
		Description: trimPtr(in.Description),
		Category:    trimPtr(in.Category),
		AllDay:      in.AllDay,
		StartTime:   start,
		EndTime:     end,
	})
}

func (s *calendarService) owned(ctx context.Context, userID, id string) (*model.CalendarEvent, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "event")
	}
	if e.UserID != userID {
		return nil, notFound("event")
	}
	return e, nil
}

func (s *calendarService) Update(ctx context.Context, userID, id string, patch map[string]any) (*model.CalendarEvent, error) {
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	f, err := buildFields(patch, eventFields)
	if err != nil {
		return nil, err
	}
	start, end := current.StartTime, current.EndTime
	if v, ok := f["start_time"]; ok {
		t, isTime := v.(time.Time)
		if !isTime {
			return nil, invalid("start_time cannot be null")
		}
		start = t
	}
	if v, ok := f["end_time"]; ok {
		t, isTime := v.(time.Time)
		if !isTime {
			return nil, invalid("end_time cannot be null")
		}
		end = t
	}
	if end.Before(start) {
		return nil, invalid("end_time must not precede start_time")
	}
	e, err := s.repo.Update(ctx, id, f)
	if err != nil {
		return nil, mapNotFound(err, "event")
	}
	return e, nil
}

func (s *calendarService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return mapNotFound(s.repo.Delete(ctx, id), "event")
}

var financeTypes = []string{"income", "expense"}

type CategoryInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type FinanceTransactionInput struct {
	ArtistID        *string `json:"artist_id"`
	CategoryID      string  `json:"category_id"`
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	Description     *string `json:"description"`
	TransactionDate string  `json:"transaction_date"`
}

// FinanceService tracks income and expenses per user and artist.
type FinanceService interface {
	ListCategories(ctx context.Context, userID string) ([]model.FinanceCategory, error)
	CreateCategory(ctx context.Context, userID string, in CategoryInput) (*model.FinanceCategory, error)
	ListTransactions(ctx context.Context, f repository.FinanceFilter, limit, offset int) (*ListResult[model.FinanceTransaction], error)
	CreateTransaction(ctx context.Context, userID string, in FinanceTransactionInput) (*model.FinanceTransaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	Summary(ctx context.Context, f repository.FinanceFilter) (*model.FinanceSummary, error)
}

type financeService struct {
	repo repository.FinanceRepository
	now  func() time.Time
}

func NewFinanceService(repo repository.FinanceRepository) FinanceService {
	return &financeService{repo: repo, now: time.Now}
}

func (s *financeService) ListCategories(ctx context.Context, userID string) ([]model.FinanceCategory, error) {
	return s.repo.ListCategories(ctx, userID)
}

func (s *financeService) CreateCategory(ctx context.Context, userID string, in CategoryInput) (*model.FinanceCategory, error) {
	name := strings.TrimSpace(in.Name)
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if name == "" {
		return nil, invalid("name is required")
	}
	if !oneOf(typ, financeTypes...) {
		return nil, invalid("type must be income or expense")
	}
	return s.repo.CreateCategory(ctx, &model.FinanceCategory{UserID: userID, Name: name, Type: typ})
}

func (s *financeService) ListTransactions(ctx context.Context, f repository.FinanceFilter, limit, offset int) (*ListResult[model.FinanceTransaction], error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	res, err := s.repo.ListTransactions(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.FinanceTransaction]{Items: res.Items, Total: res.Total}, nil
}

func (s *financeService) CreateTransaction(ctx context.Context, userID string, in FinanceTransactionInput) (*model.FinanceTransaction, error) {
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if !oneOf(typ, financeTypes...) {
		return nil, invalid("type must be income or expense")
	}
	if in.Amount <= 0 {
		return nil, invalid("amount must be greater than 0")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil, invalid("category_id is required")
	}
	cat, err := s.repo.FindCategory(ctx, in.CategoryID)
	if err != nil {
		if isNoRows(err) {
			return nil, invalid("category %s does not exist", in.CategoryID)
		}
		return nil, err
	}
	if cat.UserID != userID {
		return nil, invalid("category %s does not exist", in.CategoryID)
	}
	if cat.Type != typ {
		return nil, invalid("category %q is a %s category", cat.Name, cat.Type)
	}
	date := s.now().UTC()
	if strings.TrimSpace(in.TransactionDate) != "" {
		if date, err = ParseTime(in.TransactionDate); err != nil {
			return nil, invalid("transaction_date must be RFC3339 or YYYY-MM-DD")
		}
	}
	return s.repo.CreateTransaction(ctx, &model.FinanceTransaction{
		UserID:          userID,
		ArtistID:        trimPtr(in.ArtistID),
		CategoryID:      cat.ID,
		Type:            typ,
		Amount:          in.Amount,
		Description:     trimPtr(in.Description),
		TransactionDate: date,
	})
}

func (s *financeService) DeleteTransaction(ctx context.Context, userID, id string) error {
	return mapNotFound(s.repo.DeleteTransaction(ctx, id, userID), "transaction")
}

func (s *financeService) Summary(ctx context.Context, f repository.FinanceFilter) (*model.FinanceSummary, error) {
	totals, err := s.repo.CategoryTotals(ctx, f)
	if err != nil {
		return nil, err
	}
	sum := &model.FinanceSummary{ByCategory: totals}
	if sum.ByCategory == nil {
		sum.ByCategory = []model.CategoryTotal{}
	}
	for _, t := range totals {
		switch t.Type {
		case "income":
			sum.TotalIncome += t.Total
		case "expense":
			sum.TotalExpenses += t.Total
		}
	}
	sum.Net = sum.TotalIncome - sum.TotalExpenses
	return sum, nil
}
