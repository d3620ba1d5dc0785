package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// seekThresholdMs is the smallest jump recorded as a seek.
const seekThresholdMs = 2000

var (
	audioEventTypes = []string{
		model.AudioPlay, model.AudioPause, model.AudioComplete,
		model.AudioSeek, model.AudioProgress, model.AudioError,
	}
	audioSources = []string{"spotify", "muso_ai", "creative_vault", "shareable", "other"}
)

// AudioEventInput is one player event as posted by a client.
type AudioEventInput struct {
	SessionID          string   `json:"session_id"`
	TrackID            string   `json:"track_id"`
	TrackName          *string  `json:"track_name"`
	ArtistName         *string  `json:"artist_name"`
	AlbumName          *string  `json:"album_name"`
	TrackDurationMs    *float64 `json:"track_duration_ms"`
	EventType          string   `json:"event_type"`
	EventTimestamp     *string  `json:"event_timestamp"`
	CurrentPositionMs  float64  `json:"current_position_ms"`
	PreviousPositionMs *float64 `json:"previous_position_ms"`
	ListenDurationMs   *float64 `json:"listen_duration_ms"`
	Source             string   `json:"source"`
	DeviceType         string   `json:"device_type"`
}

type AudioIngestResult struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
	Skipped  int `json:"skipped"`
}

// AudioService records player analytics.
type AudioService interface {
	Ingest(ctx context.Context, userID string, events []AudioEventInput) (*AudioIngestResult, error)
	Summary(ctx context.Context, trackID string) (*model.AudioSummary, error)
}

type audioService struct {
	repo repository.AudioEventRepository
	now  func() time.Time
}

func NewAudioService(repo repository.AudioEventRepository) AudioService {
	return &audioService{repo: repo, now: time.Now}
}

// NormalizeAudioEvent validates one event and fills the derived fields.
// ok is false for seeks too short to be worth keeping.
func NormalizeAudioEvent(in AudioEventInput, userID string, now time.Time) (ev model.AudioEvent, ok bool, err error) {
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.TrackID) == "" {
		return ev, false, invalid("session_id and track_id are required")
	}
	typ := strings.ToLower(strings.TrimSpace(in.EventType))
	if !oneOf(typ, audioEventTypes...) {
		return ev, false, invalid("event_type must be one of %s", strings.Join(audioEventTypes, ", "))
	}
	if typ == model.AudioSeek && in.PreviousPositionMs != nil &&
		math.Abs(in.CurrentPositionMs-*in.PreviousPositionMs) <= seekThresholdMs {
		return ev, false, nil
	}

	source := strings.ToLower(strings.TrimSpace(in.Source))
	if !oneOf(source, audioSources...) {
		source = "other"
	}
	ts := now.UTC()
	if in.EventTimestamp != nil && strings.TrimSpace(*in.EventTimestamp) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*in.EventTimestamp))
		if err != nil {
			return ev, false, invalid("event_timestamp must be RFC3339")
		}
		ts = t.UTC()
	}

	ev = model.AudioEvent{
		SessionID:         strings.TrimSpace(in.SessionID),
		TrackID:           strings.TrimSpace(in.TrackID),
		TrackName:         trimPtr(in.TrackName),
		ArtistName:        trimPtr(in.ArtistName),
		AlbumName:         trimPtr(in.AlbumName),
		EventType:         typ,
		EventTimestamp:    ts,
		CurrentPositionMs: roundMs(in.CurrentPositionMs),
		Source:            source,
		DeviceType:        orDefault(in.DeviceType, "unknown"),
	}
	if userID != "" {
		ev.UserID = &userID
	}
	if in.TrackDurationMs != nil {
		d := roundMs(*in.TrackDurationMs)
		ev.TrackDurationMs = &d
		ev.CompletionPercentage = completionPercentage(in.CurrentPositionMs, *in.TrackDurationMs)
	}
	if in.PreviousPositionMs != nil {
		p := roundMs(*in.PreviousPositionMs)
		ev.PreviousPositionMs = &p
	}
	if in.ListenDurationMs != nil {
		l := roundMs(*in.ListenDurationMs)
		ev.ListenDurationMs = &l
	}
	return ev, true, nil
}

func roundMs(v float64) int64 {
	if v < 0 {
		return 0
	}
	return int64(math.Round(v))
}

func (s *audioService) Ingest(ctx context.Context, userID string, events []AudioEventInput) (*AudioIngestResult, error) {
	if len(events) == 0 {
		return nil, invalid("no events")
	}
	now := s.now()
	res := &AudioIngestResult{Received: len(events)}
	rows := make([]model.AudioEvent, 0, len(events))
	for i, in := range events {
		ev, ok, err := NormalizeAudioEvent(in, userID, now)
		if err != nil {
			if len(events) > 1 {
				return nil, invalid("events[%d]: %s", i, messageOf(err))
			}
			return nil, err
		}
		if !ok {
			res.Skipped++
			continue
		}
		rows = append(rows, ev)
	}
	if len(rows) == 0 {
		return res, nil
	}
	n, err := s.repo.Insert(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("insert audio events: %w", err)
	}
	res.Stored = n
	return res, nil
}

func (s *audioService) Summary(ctx context.Context, trackID string) (*model.AudioSummary, error) {
	if strings.TrimSpace(trackID) == "" {
		return nil, invalid("track_id is required")
	}
	return s.repo.Summary(ctx, trackID)
}
