package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/statement"
)

const importSourceExcel = "excel_import"

// StatementUpload is an uploaded statements workbook.
type StatementUpload struct {
	UserID   string
	FileName string
	Size     int64
	Body     io.Reader
}

// ArtistImport reports the outcome for one sheet of the workbook.
type ArtistImport struct {
	ArtistName   string  `json:"artist_name"`
	ArtistID     string  `json:"artist_id,omitempty"`
	StatementID  string  `json:"statement_id,omitempty"`
	Month        string  `json:"statement_month,omitempty"`
	Transactions int     `json:"transactions"`
	Balance      float64 `json:"balance"`
	Error        string  `json:"error,omitempty"`
}

type StatementImportResult struct {
	TotalArtists      int            `json:"total_artists"`
	TotalTransactions int            `json:"total_transactions"`
	SuccessfulImports int            `json:"successful_imports"`
	FailedImports     int            `json:"failed_imports"`
	Details           []ArtistImport `json:"details"`
}

// StatementService imports and lists monthly artist statements.
type StatementService interface {
	Import(ctx context.Context, in StatementUpload) (*StatementImportResult, error)
	ListByArtist(ctx context.Context, artistID string) ([]model.ArtistStatement, error)
	ListTransactions(ctx context.Context, statementID string) ([]model.StatementTransaction, error)
}

type statementService struct {
	repo    repository.StatementRepository
	artists ArtistService
	log     *logger.Logger
	now     func() time.Time
}

func NewStatementService(repo repository.StatementRepository, artists ArtistService, log *logger.Logger) StatementService {
	if log == nil {
		log = logger.Nop()
	}
	return &statementService{repo: repo, artists: artists, log: log, now: time.Now}
}

func (s *statementService) Import(ctx context.Context, in StatementUpload) (*StatementImportResult, error) {
	if in.Body == nil {
		return nil, invalid("file is required")
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if ext != ".xlsx" && ext != ".xls" {
		return nil, invalid("unsupported file type %q, expected an Excel workbook", ext)
	}
	sheets, err := statement.ReadWorkbook(in.Body)
	if err != nil {
		return nil, invalid("%v", err)
	}

	res := &StatementImportResult{Details: make([]ArtistImport, 0, len(sheets))}
	for _, sh := range sheets {
		res.TotalArtists++
		detail := ArtistImport{ArtistName: sh.Name}
		if sh.Err != nil {
			detail.Error = sh.Err.Error()
		} else if err := s.importSheet(ctx, sh.Sheet, &detail); err != nil {
			s.log.Warn("statement sheet failed", "sheet", sh.Name, "error", err)
			detail.Error = err.Error()
		}
		if detail.Error != "" {
			res.FailedImports++
		} else {
			res.SuccessfulImports++
			res.TotalTransactions += detail.Transactions
		}
		res.Details = append(res.Details, detail)
	}

	summary, err := json.Marshal(res.Details)
	if err != nil {
		return nil, fmt.Errorf("encode import summary: %w", err)
	}
	imp := &model.StatementImport{
		FileName:          filepath.Base(in.FileName),
		FileSize:          in.Size,
		TotalArtists:      res.TotalArtists,
		TotalTransactions: res.TotalTransactions,
		SuccessfulImports: res.SuccessfulImports,
		FailedImports:     res.FailedImports,
		ImportSummary:     summary,
	}
	if in.UserID != "" {
		imp.ImportedBy = &in.UserID
	}
	if err := s.repo.RecordImport(ctx, imp); err != nil {
		s.log.Warn("record statement import failed", "file", in.FileName, "error", err)
	}
	s.log.Info("statements imported", "file", in.FileName, "artists", res.TotalArtists,
		"ok", res.SuccessfulImports, "failed", res.FailedImports, "transactions", res.TotalTransactions)
	return res, nil
}

func (s *statementService) importSheet(ctx context.Context, sh *statement.Sheet, detail *ArtistImport) error {
	if sh.ArtistName == "" {
		return invalid("sheet has no artist name")
	}
	artist, err := s.artists.FindOrCreate(ctx, sh.ArtistName, sh.LegalName)
	if err != nil {
		return fmt.Errorf("find or create artist: %w", err)
	}
	start, end, month := statement.Period(sh, s.now().UTC())
	st := &model.ArtistStatement{
		ArtistID:          artist.ID,
		PeriodStart:       start,
		PeriodEnd:         end,
		StatementMonth:    month,
		LegalName:         sh.LegalName,
		TotalIncome:       sh.TotalIncome,
		TotalExpenses:     sh.TotalExpenses,
		TotalAdvances:     sh.TotalAdvances,
		Balance:           sh.Balance,
		TotalTransactions: len(sh.Transactions),
		ImportSource:      importSourceExcel,
	}
	saved, err := s.repo.Save(ctx, st, sh.Transactions)
	if err != nil {
		return fmt.Errorf("save statement: %w", err)
	}
	detail.ArtistID = artist.ID
	detail.StatementID = saved.ID
	detail.Month = month
	detail.Transactions = len(sh.Transactions)
	detail.Balance = sh.Balance
	return nil
}

func (s *statementService) ListByArtist(ctx context.Context, artistID string) ([]model.ArtistStatement, error) {
	if strings.TrimSpace(artistID) == "" {
		return nil, invalid("artist_id is required")
	}
	return s.repo.ListByArtist(ctx, artistID)
}

func (s *statementService) ListTransactions(ctx context.Context, statementID string) ([]model.StatementTransaction, error) {
	return s.repo.ListTransactions(ctx, statementID)
}
