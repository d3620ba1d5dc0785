package repository

import (
	"context"
	"time"

	"backoffice/internal/model"
)

// PlayEvent is one listener interaction folded into a track_plays row.
type PlayEvent struct {
	Type       string
	PositionMs int64
	DurationMs int64
	ListenMs   int64
}

type TrackRepository interface {
	Create(ctx context.Context, t *model.ShareableTrack) (*model.ShareableTrack, error)
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.ShareableTrack], error)
	FindByID(ctx context.Context, id string) (*model.ShareableTrack, error)
	FindByCode(ctx context.Context, code string) (*model.ShareableTrack, error)
	Update(ctx context.Context, id string, f Fields) (*model.ShareableTrack, error)
	Delete(ctx context.Context, id string) error
	PlayCount(ctx context.Context, trackID string) (int, error)
	RecordPlay(ctx context.Context, p *model.TrackPlay, ev PlayEvent) error
	Analytics(ctx context.Context, trackID string, from, to time.Time) (*model.TrackAnalytics, error)
}

type AudioEventRepository interface {
	Insert(ctx context.Context, events []model.AudioEvent) (int, error)
	Summary(ctx context.Context, trackID string) (*model.AudioSummary, error)
}
