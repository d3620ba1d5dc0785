package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

type MockTrackService struct {
	mock.Mock
}

func (m *MockTrackService) Create(ctx context.Context, in service.TrackUpload) (*model.ShareableTrack, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareableTrack), args.Error(1)
}

func (m *MockTrackService) List(ctx context.Context, userID string, limit, offset int) (*service.ListResult[model.ShareableTrack], error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.ShareableTrack]), args.Error(1)
}

func (m *MockTrackService) Update(ctx context.Context, userID, id string, patch map[string]any) (*model.ShareableTrack, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareableTrack), args.Error(1)
}

func (m *MockTrackService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTrackService) GetPublic(ctx context.Context, code, password string) (*service.PublicTrack, error) {
	args := m.Called(ctx, code, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublicTrack), args.Error(1)
}

func (m *MockTrackService) RecordPlay(ctx context.Context, code string, in service.PlayInput) error {
	args := m.Called(ctx, code, in)
	return args.Error(0)
}

func (m *MockTrackService) Analytics(ctx context.Context, userID, id string, from, to time.Time) (*model.TrackAnalytics, error) {
	args := m.Called(ctx, userID, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackAnalytics), args.Error(1)
}

type MockAudioService struct {
	mock.Mock
}

func (m *MockAudioService) Ingest(ctx context.Context, userID string, events []service.AudioEventInput) (*service.AudioIngestResult, error) {
	args := m.Called(ctx, userID, events)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AudioIngestResult), args.Error(1)
}

func (m *MockAudioService) Summary(ctx context.Context, trackID string) (*model.AudioSummary, error) {
	args := m.Called(ctx, trackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AudioSummary), args.Error(1)
}
