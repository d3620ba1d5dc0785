package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CalendarEvent is a scheduled item on an artist's calendar.
type CalendarEvent struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ArtistID    string    `db:"artist_id" json:"artist_id"`
	ProjectID   *string   `db:"project_id" json:"project_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Category    *string   `db:"category" json:"category,omitempty"`
	AllDay      bool      `db:"all_day" json:"all_day"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type FinanceCategory struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type FinanceTransaction struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	ArtistID        *string   `db:"artist_id" json:"artist_id,omitempty"`
	CategoryID      string    `db:"category_id" json:"category_id"`
	Type            string    `db:"type" json:"type"`
	Amount          float64   `db:"amount" json:"amount"`
	Description     *string   `db:"description" json:"description,omitempty"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type CategoryTotal struct {
	CategoryID string  `db:"category_id" json:"category_id"`
	Name       string  `db:"name" json:"name"`
	Type       string  `db:"type" json:"type"`
	Total      float64 `db:"total" json:"total"`
}

type FinanceSummary struct {
	TotalIncome   float64         `json:"total_income"`
	TotalExpenses float64         `json:"total_expenses"`
	Net           float64         `json:"net"`
	ByCategory    []CategoryTotal `json:"by_category"`
}

// MusoProfile links an artist to a Muso.AI profile and caches its popularity.
type MusoProfile struct {
	ID            string          `db:"id" json:"id"`
	ArtistID      string          `db:"artist_id" json:"artist_id"`
	MusoProfileID string          `db:"muso_profile_id" json:"muso_profile_id"`
	Popularity    *int            `db:"popularity" json:"popularity,omitempty"`
	ProfileData   *types.JSONText `db:"profile_data" json:"profile_data,omitempty"`
	LastUpdated   *time.Time      `db:"last_updated" json:"last_updated,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
