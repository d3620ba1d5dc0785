package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	ReportKindRoyalty  = "royalty"
	ReportKindAudience = "audience"
	ReportKindUnknown  = "unknown"
)

type RoyaltyReport struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ArtistID   *string   `db:"artist_id" json:"artist_id,omitempty"`
	FileName   string    `db:"file_name" json:"file_name"`
	StorageKey string    `db:"storage_key" json:"storage_key"`
	Kind       string    `db:"kind" json:"kind"`
	Status     string    `db:"status" json:"status"`
	RowCount   int       `db:"row_count" json:"row_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type RoyaltyRow struct {
	ReportID  string  `db:"report_id" json:"report_id"`
	ArtistID  string  `db:"artist_id" json:"artist_id"`
	SongTitle string  `db:"song_title" json:"song_title"`
	Platform  string  `db:"platform" json:"platform"`
	Country   string  `db:"country" json:"country"`
	Revenue   float64 `db:"revenue" json:"revenue"`
	ISRC      *string `db:"isrc" json:"isrc,omitempty"`
	Quantity  *int    `db:"quantity" json:"quantity,omitempty"`
}

type AudienceRow struct {
	ReportID   string    `db:"report_id" json:"report_id"`
	ArtistID   string    `db:"artist_id" json:"artist_id"`
	ReportDate time.Time `db:"report_date" json:"report_date"`
	Listeners  int       `db:"listeners" json:"listeners"`
	Streams    int       `db:"streams" json:"streams"`
	Followers  int       `db:"followers" json:"followers"`
}

// ArtistStatement is one artist's account summary for a month.
type ArtistStatement struct {
	ID                string    `db:"id" json:"id"`
	ArtistID          string    `db:"artist_id" json:"artist_id"`
	PeriodStart       time.Time `db:"period_start" json:"period_start"`
	PeriodEnd         time.Time `db:"period_end" json:"period_end"`
	StatementMonth    string    `db:"statement_month" json:"statement_month"`
	LegalName         *string   `db:"legal_name" json:"legal_name,omitempty"`
	TotalIncome       float64   `db:"total_income" json:"total_income"`
	TotalExpenses     float64   `db:"total_expenses" json:"total_expenses"`
	TotalAdvances     float64   `db:"total_advances" json:"total_advances"`
	Balance           float64   `db:"balance" json:"balance"`
	TotalTransactions int       `db:"total_transactions" json:"total_transactions"`
	LastImportDate    time.Time `db:"last_import_date" json:"last_import_date"`
	ImportSource      string    `db:"import_source" json:"import_source"`
}

type StatementTransaction struct {
	ID                     string    `db:"id" json:"id"`
	StatementID            string    `db:"statement_id" json:"statement_id"`
	ArtistID               string    `db:"artist_id" json:"artist_id"`
	TransactionDate        time.Time `db:"transaction_date" json:"transaction_date"`
	Concept                string    `db:"concept" json:"concept"`
	Amount                 float64   `db:"amount" json:"amount"`
	TransactionType        string    `db:"transaction_type" json:"transaction_type"`
	Category               *string   `db:"category" json:"category,omitempty"`
	RunningBalance         float64   `db:"running_balance" json:"running_balance"`
	InvoiceNumber          *string   `db:"invoice_number" json:"invoice_number,omitempty"`
	TransactionTypeCode    *string   `db:"transaction_type_code" json:"transaction_type_code,omitempty"`
	PaymentMethodDetail    *string   `db:"payment_method_detail" json:"payment_method_detail,omitempty"`
	InvoiceValue           *float64  `db:"invoice_value" json:"invoice_value,omitempty"`
	BankChargesAmount      *float64  `db:"bank_charges_amount" json:"bank_charges_amount,omitempty"`
	CountryPercentage      *float64  `db:"country_percentage" json:"country_percentage,omitempty"`
	Commission20Percentage *float64  `db:"commission_20_percentage" json:"commission_20_percentage,omitempty"`
	Legal5Percentage       *float64  `db:"legal_5_percentage" json:"legal_5_percentage,omitempty"`
	TaxRetention           *float64  `db:"tax_retention" json:"tax_retention,omitempty"`
	MvpxPayment            *float64  `db:"mvpx_payment" json:"mvpx_payment,omitempty"`
	AdvanceAmount          *float64  `db:"advance_amount" json:"advance_amount,omitempty"`
	FinalBalance           *float64  `db:"final_balance" json:"final_balance,omitempty"`
}

type StatementImport struct {
	ID                string         `db:"id" json:"id"`
	FileName          string         `db:"file_name" json:"file_name"`
	FileSize          int64          `db:"file_size" json:"file_size"`
	TotalArtists      int            `db:"total_artists" json:"total_artists"`
	TotalTransactions int            `db:"total_transactions" json:"total_transactions"`
	SuccessfulImports int            `db:"successful_imports" json:"successful_imports"`
	FailedImports     int            `db:"failed_imports" json:"failed_imports"`
	ImportSummary     types.JSONText `db:"import_summary" json:"import_summary"`
	ImportedBy        *string        `db:"imported_by" json:"imported_by,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}
