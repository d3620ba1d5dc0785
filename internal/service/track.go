package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
)

const (
	shareCodeLength   = 10
	shareCodeAttempts = 5
	shareCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	audioURLExpiry    = time.Hour
	analyticsWindow   = 30 * 24 * time.Hour
)

var audioExtensions = []string{".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac"}

var (
	// ErrTrackUnavailable covers inactive, private or unknown share codes.
	ErrTrackUnavailable = &DetailError{Kind: ErrNotFound, Message: "track not available"}
	ErrTrackExpired     = &DetailError{Kind: ErrForbidden, Code: "TRACK_EXPIRED", Message: "this link has expired"}
	ErrTrackPlayLimit   = &DetailError{Kind: ErrForbidden, Code: "PLAY_LIMIT_REACHED", Message: "play limit reached"}
	ErrTrackPassword    = &DetailError{Kind: ErrUnauthorized, Code: "PASSWORD_REQUIRED", Message: "a valid password is required"}
)

// TrackUpload creates a shareable track from an uploaded audio file.
type TrackUpload struct {
	UserID        string
	ArtistID      *string
	TrackName     string
	ArtistName    string
	AlbumName     *string
	CoverImageURL *string
	Description   *string
	Genre         *string
	DurationMs    *int
	IsPublic      *bool
	Password      string
	MaxPlays      *int
	ExpiresAt     *time.Time
	ReleaseDate   *time.Time

	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PublicTrack is what anonymous listeners receive.
type PublicTrack struct {
	ID            string     `json:"id"`
	TrackName     string     `json:"track_name"`
	ArtistName    string     `json:"artist_name"`
	AlbumName     *string    `json:"album_name,omitempty"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Genre         *string    `json:"genre,omitempty"`
	DurationMs    *int       `json:"duration_ms,omitempty"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	AudioURL      string     `json:"audio_url"`
}

// PlayInput is one listener event on a shared track.
type PlayInput struct {
	SessionID   string  `json:"session_id"`
	EventType   string  `json:"event_type"`
	PositionMs  float64 `json:"position_ms"`
	DurationMs  float64 `json:"duration_ms"`
	ListenMs    float64 `json:"listen_duration_ms"`
	Country     *string `json:"country"`
	DeviceType  *string `json:"device_type"`
	Referrer    *string `json:"referrer"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
}

// TrackService manages shareable tracks and their public access.
type TrackService interface {
	Create(ctx context.Context, in TrackUpload) (*model.ShareableTrack, error)
	List(ctx context.Context, userID string, limit, offset int) (*ListResult[model.ShareableTrack], error)
	Update(ctx context.Context, userID, id string, patch map[string]any) (*model.ShareableTrack, error)
	Delete(ctx context.Context, userID, id string) error
	// GetPublic resolves a share code for an anonymous listener.
	GetPublic(ctx context.Context, code, password string) (*PublicTrack, error)
	RecordPlay(ctx context.Context, code string, in PlayInput) error
	Analytics(ctx context.Context, userID, id string, from, to time.Time) (*model.TrackAnalytics, error)
}

type trackService struct {
	repo    repository.TrackRepository
	store   storage.Storage
	baseURL string
	log     *logger.Logger
	now     func() time.Time
	newCode func() (string, error)
}

func NewTrackService(repo repository.TrackRepository, store storage.Storage, publicBaseURL string, log *logger.Logger) TrackService {
	if log == nil {
		log = logger.Nop()
	}
	return &trackService{
		repo:    repo,
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		log:     log,
		now:     time.Now,
		newCode: NewShareCode,
	}
}

// NewShareCode returns a random 10 character [a-z0-9] code.
func NewShareCode() (string, error) {
	b := make([]byte, shareCodeLength)
	max := big.NewInt(int64(len(shareCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = shareCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func hashPassword(pw string) (*string, error) {
	if strings.TrimSpace(pw) == "" {
		return nil, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	s := string(h)
	return &s, nil
}

func (s *trackService) decorate(t *model.ShareableTrack) *model.ShareableTrack {
	t.ShareURL = s.baseURL + "/listen/" + t.ShareCode
	t.HasPassword = t.PasswordHash != nil && *t.PasswordHash != ""
	return t
}

func (s *trackService) Create(ctx context.Context, in TrackUpload) (*model.ShareableTrack, error) {
	if in.Body == nil {
		return nil, invalid("audio file is required")
	}
	if strings.TrimSpace(in.TrackName) == "" || strings.TrimSpace(in.ArtistName) == "" {
		return nil, invalid("track_name and artist_name are required")
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if !oneOf(ext, audioExtensions...) {
		return nil, invalid("unsupported audio type %q", ext)
	}
	if in.MaxPlays != nil && *in.MaxPlays <= 0 {
		return nil, invalid("max_plays must be positive")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	key := "tracks/" + uuid.NewString() + ext
	obj, err := s.store.Put(ctx, key, in.Body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"original-filename": in.FileName},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	t := &model.ShareableTrack{
		UserID:          in.UserID,
		ArtistID:        trimPtr(in.ArtistID),
		TrackName:       strings.TrimSpace(in.TrackName),
		ArtistName:      strings.TrimSpace(in.ArtistName),
		AlbumName:       trimPtr(in.AlbumName),
		CoverImageURL:   trimPtr(in.CoverImageURL),
		AudioStorageKey: obj.Key,
		DurationMs:      in.DurationMs,
		IsActive:        true,
		IsPublic:        isPublic,
		PasswordHash:    hash,
		MaxPlays:        in.MaxPlays,
		ExpiresAt:       in.ExpiresAt,
		Description:     trimPtr(in.Description),
		Genre:           trimPtr(in.Genre),
		ReleaseDate:     in.ReleaseDate,
	}

	created, err := s.insertWithCode(ctx, t)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return s.decorate(created), nil
}

// insertWithCode retries on share code collisions.
func (s *trackService) insertWithCode(ctx context.Context, t *model.ShareableTrack) (*model.ShareableTrack, error) {
	var lastErr error
	for i := 0; i < shareCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		t.ShareCode = code
		created, err := s.repo.Create(ctx, t)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no unique share code after %d attempts: %w", shareCodeAttempts, lastErr)
}

func (s *trackService) List(ctx context.Context, userID string, limit, offset int) (*ListResult[model.ShareableTrack], error) {
	limit, offset = normalizePage(limit, offset, 20, 200)
	res, err := s.repo.ListByUser(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.decorate(&res.Items[i])
	}
	return &ListResult[model.ShareableTrack]{Items: res.Items, Total: res.Total}, nil
}

func (s *trackService) owned(ctx context.Context, userID, id string) (*model.ShareableTrack, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "track")
	}
	if t.UserID != userID {
		return nil, notFound("track")
	}
	return t, nil
}

var trackFields = map[string]fieldKind{
	"track_name":      kindText,
	"artist_name":     kindText,
	"album_name":      kindNullText,
	"cover_image_url": kindNullText,
	"description":     kindNullText,
	"genre":           kindNullText,
	"is_active":       kindBool,
	"is_public":       kindBool,
	"max_plays":       kindInt,
	"expires_at":      kindTime,
	"release_date":    kindTime,
	"duration_ms":     kindInt,
}

func (s *trackService) Update(ctx context.Context, userID, id string, patch map[string]any) (*model.ShareableTrack, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	f := repository.Fields{}
	if pw, ok := patch["password"]; ok {
		switch v := pw.(type) {
		case nil:
			f["password_hash"] = nil
		case string:
			hash, err := hashPassword(v)
			if err != nil {
				return nil, err
			}
			f["password_hash"] = hash
		default:
			return nil, invalid("password must be a string")
		}
	}
	if len(f) == 0 || hasAllowedKey(patch, trackFields) {
		built, err := buildFields(patch, trackFields)
		if err != nil {
			return nil, err
		}
		for k, v := range built {
			f[k] = v
		}
	}
	if n, ok := f["max_plays"].(int64); ok && n <= 0 {
		return nil, invalid("max_plays must be positive")
	}
	t, err := s.repo.Update(ctx, id, f)
	if err != nil {
		return nil, mapNotFound(err, "track")
	}
	return s.decorate(t), nil
}

func (s *trackService) Delete(ctx context.Context, userID, id string) error {
	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err, "track")
	}
	if err := s.store.Delete(ctx, t.AudioStorageKey); err != nil {
		s.log.Warn("delete track audio failed", "track_id", id, "key", t.AudioStorageKey, "error", err)
	}
	return nil
}

// accessible applies the public access rules shared by fetch and play
// recording. The play limit is checked only when countsPlay is set.
func (s *trackService) accessible(ctx context.Context, code string, countsPlay bool) (*model.ShareableTrack, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrTrackUnavailable
	}
	t, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrTrackUnavailable
		}
		return nil, err
	}
	if !t.IsActive || !t.IsPublic {
		return nil, ErrTrackUnavailable
	}
	if t.ExpiresAt != nil && !s.now().Before(*t.ExpiresAt) {
		return nil, ErrTrackExpired
	}
	if countsPlay && t.MaxPlays != nil {
		plays, err := s.repo.PlayCount(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if plays >= *t.MaxPlays {
			return nil, ErrTrackPlayLimit
		}
	}
	return t, nil
}

func (s *trackService) GetPublic(ctx context.Context, code, password string) (*PublicTrack, error) {
	t, err := s.accessible(ctx, code, true)
	if err != nil {
		return nil, err
	}
	if t.PasswordHash != nil && *t.PasswordHash != "" {
		if password == "" || bcrypt.CompareHashAndPassword([]byte(*t.PasswordHash), []byte(password)) != nil {
			return nil, ErrTrackPassword
		}
	}
	audioURL, err := s.store.PresignGet(ctx, t.AudioStorageKey, audioURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign audio: %w", err)
	}
	return &PublicTrack{
		ID:            t.ID,
		TrackName:     t.TrackName,
		ArtistName:    t.ArtistName,
		AlbumName:     t.AlbumName,
		CoverImageURL: t.CoverImageURL,
		Description:   t.Description,
		Genre:         t.Genre,
		DurationMs:    t.DurationMs,
		ReleaseDate:   t.ReleaseDate,
		AudioURL:      audioURL,
	}, nil
}

var playEvents = []string{model.AudioPlay, model.AudioPause, model.AudioSeek, model.AudioComplete, model.AudioProgress}

func (s *trackService) RecordPlay(ctx context.Context, code string, in PlayInput) error {
	if strings.TrimSpace(in.SessionID) == "" {
		return invalid("session_id is required")
	}
	ev := strings.ToLower(strings.TrimSpace(in.EventType))
	if !oneOf(ev, playEvents...) {
		return invalid("event_type must be one of %s", strings.Join(playEvents, ", "))
	}
	t, err := s.accessible(ctx, code, ev == model.AudioPlay)
	if err != nil {
		return err
	}

	duration := in.DurationMs
	if duration <= 0 && t.DurationMs != nil {
		duration = float64(*t.DurationMs)
	}
	pct := completionPercentage(in.PositionMs, duration)
	p := &model.TrackPlay{
		ShareableTrackID:     t.ID,
		SessionID:            strings.TrimSpace(in.SessionID),
		ListenerCountry:      trimPtr(in.Country),
		DeviceType:           trimPtr(in.DeviceType),
		ReferrerURL:          trimPtr(in.Referrer),
		UTMSource:            trimPtr(in.UTMSource),
		UTMMedium:            trimPtr(in.UTMMedium),
		UTMCampaign:          trimPtr(in.UTMCampaign),
		MaxPositionReachedMs: int64(math.Round(math.Max(in.PositionMs, 0))),
		CompletionPercentage: pct,
		Completed:            ev == model.AudioComplete || pct >= 100,
	}
	return s.repo.RecordPlay(ctx, p, repository.PlayEvent{
		Type:       ev,
		PositionMs: p.MaxPositionReachedMs,
		DurationMs: int64(math.Round(duration)),
		ListenMs:   int64(math.Round(math.Max(in.ListenMs, 0))),
	})
}

func (s *trackService) Analytics(ctx context.Context, userID, id string, from, to time.Time) (*model.TrackAnalytics, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-analyticsWindow)
	}
	if !from.Before(to) {
		return nil, invalid("from must be before to")
	}
	return s.repo.Analytics(ctx, id, from, to)
}

func hasAllowedKey(patch map[string]any, allowed map[string]fieldKind) bool {
	for k := range patch {
		if _, ok := allowed[k]; ok {
			return true
		}
	}
	return false
}

// completionPercentage is position/duration*100 rounded to two decimals and capped at 100.
func completionPercentage(positionMs, durationMs float64) float64 {
	if durationMs <= 0 || positionMs <= 0 {
		return 0
	}
	pct := math.Round(positionMs/durationMs*10000) / 100
	return math.Min(pct, 100)
}
