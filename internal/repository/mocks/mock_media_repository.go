package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type MockTrackRepository struct {
	mock.Mock
}

func (m *MockTrackRepository) Create(ctx context.Context, t *model.ShareableTrack) (*model.ShareableTrack, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareableTrack), args.Error(1)
}

func (m *MockTrackRepository) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.ShareableTrack], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ShareableTrack]), args.Error(1)
}

func (m *MockTrackRepository) FindByID(ctx context.Context, id string) (*model.ShareableTrack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareableTrack), args.Error(1)
}

func (m *MockTrackRepository) FindByCode(ctx context.Context, code string) (*model.ShareableTrack, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareableTrack), args.Error(1)
}

func (m *MockTrackRepository) Update(ctx context.Context, id string, f repository.Fields) (*model.ShareableTrack, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareableTrack), args.Error(1)
}

func (m *MockTrackRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTrackRepository) PlayCount(ctx context.Context, trackID string) (int, error) {
	args := m.Called(ctx, trackID)
	return args.Int(0), args.Error(1)
}

func (m *MockTrackRepository) RecordPlay(ctx context.Context, p *model.TrackPlay, ev repository.PlayEvent) error {
	return m.Called(ctx, p, ev).Error(0)
}

func (m *MockTrackRepository) Analytics(ctx context.Context, trackID string, from, to time.Time) (*model.TrackAnalytics, error) {
	args := m.Called(ctx, trackID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackAnalytics), args.Error(1)
}

type MockAudioEventRepository struct {
	mock.Mock
}

func (m *MockAudioEventRepository) Insert(ctx context.Context, events []model.AudioEvent) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockAudioEventRepository) Summary(ctx context.Context, trackID string) (*model.AudioSummary, error) {
	args := m.Called(ctx, trackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AudioSummary), args.Error(1)
}
