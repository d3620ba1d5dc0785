package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/royalty"
	"backoffice/internal/storage"
)

const maxReportBytes = 20 << 20

var reportExtensions = []string{".csv", ".tsv", ".txt"}

// ReportUpload is one uploaded distributor export.
type ReportUpload struct {
	UserID      string
	ArtistID    string
	FileName    string
	ContentType string
	Body        io.Reader
}

type ReportUploadResult struct {
	Report    *model.RoyaltyReport `json:"report"`
	Kind      string               `json:"kind"`
	Rows      int                  `json:"rows"`
	RowErrors []royalty.RowError   `json:"row_errors"`
}

// RoyaltyService ingests royalty and audience reports.
type RoyaltyService interface {
	// Upload stores the raw file, parses it and persists the report and its rows.
	// The stored object is removed again when the database write fails.
	Upload(ctx context.Context, in ReportUpload) (*ReportUploadResult, error)
	List(ctx context.Context, userID string, limit, offset int) (*ListResult[model.RoyaltyReport], error)
	Get(ctx context.Context, userID, id string) (*model.RoyaltyReport, error)
}

type royaltyService struct {
	store   storage.Storage
	reports repository.RoyaltyReportRepository
	artists repository.ArtistRepository
	log     *logger.Logger
	metrics *Metrics
}

func NewRoyaltyService(
	store storage.Storage,
	reports repository.RoyaltyReportRepository,
	artists repository.ArtistRepository,
	log *logger.Logger,
	metrics *Metrics,
) RoyaltyService {
	if log == nil {
		log = logger.Nop()
	}
	return &royaltyService{store: store, reports: reports, artists: artists, log: log, metrics: metrics}
}

func (s *royaltyService) Upload(ctx context.Context, in ReportUpload) (*ReportUploadResult, error) {
	if in.Body == nil {
		return nil, invalid("file is required")
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if !oneOf(ext, reportExtensions...) {
		return nil, invalid("unsupported file type %q, expected .csv, .tsv or .txt", ext)
	}
	artist, err := s.resolveArtist(ctx, in.ArtistID, in.UserID)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(in.Body, maxReportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if len(raw) > maxReportBytes {
		return nil, invalid("file exceeds %d MB", maxReportBytes>>20)
	}

	parsed, err := royalty.Parse(bytes.NewReader(raw), artist.ID)
	if err != nil {
		if errors.Is(err, royalty.ErrUnknownFormat) || errors.Is(err, royalty.ErrEmpty) {
			return nil, invalidCode("UNKNOWN_REPORT_FORMAT", "%v", err)
		}
		return nil, invalid("parse report: %v", err)
	}

	key := "royalty-reports/" + uuid.NewString() + ext
	contentType := in.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	obj, err := s.store.Put(ctx, key, bytes.NewReader(raw), storage.PutObjectOptions{
		Size:        int64(len(raw)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": in.FileName},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	report := &model.RoyaltyReport{
		UserID:     in.UserID,
		ArtistID:   &artist.ID,
		FileName:   storage.SafeName(in.FileName),
		StorageKey: obj.Key,
		Kind:       parsed.Kind,
		Status:     "processed",
		RowCount:   parsed.Rows(),
	}
	stored, err := s.reports.CreateWithRows(ctx, report, parsed.Royalties, parsed.Audience)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.metrics.rows(parsed.Kind, parsed.Rows())
	s.log.Info("report ingested", "report_id", stored.ID, "kind", parsed.Kind,
		"rows", parsed.Rows(), "row_errors", len(parsed.Errors))

	rowErrors := parsed.Errors
	if rowErrors == nil {
		rowErrors = []royalty.RowError{}
	}
	return &ReportUploadResult{Report: stored, Kind: parsed.Kind, Rows: parsed.Rows(), RowErrors: rowErrors}, nil
}

// resolveArtist picks the requested artist, else the one owned by the uploader.
func (s *royaltyService) resolveArtist(ctx context.Context, artistID, userID string) (*model.Artist, error) {
	var (
		a   *model.Artist
		err error
	)
	if strings.TrimSpace(artistID) != "" {
		a, err = s.artists.FindByID(ctx, strings.TrimSpace(artistID))
	} else {
		a, err = s.artists.FindByUserID(ctx, userID)
	}
	if err != nil {
		if isNoRows(err) {
			return nil, &DetailError{Kind: ErrUnprocessable, Code: "ARTIST_NOT_FOUND", Message: "no artist found for this report"}
		}
		return nil, err
	}
	return a, nil
}

func (s *royaltyService) List(ctx context.Context, userID string, limit, offset int) (*ListResult[model.RoyaltyReport], error) {
	limit, offset = normalizePage(limit, offset, 20, 200)
	res, err := s.reports.List(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.RoyaltyReport]{Items: res.Items, Total: res.Total}, nil
}

// Get returns a report uploaded by userID. Reports of other users read as
// not found.
func (s *royaltyService) Get(ctx context.Context, userID, id string) (*model.RoyaltyReport, error) {
	r, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "report")
	}
	if r.UserID != userID {
		return nil, notFound("report")
	}
	return r, nil
}
