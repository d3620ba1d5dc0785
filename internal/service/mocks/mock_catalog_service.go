package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

type MockArtistService struct {
	mock.Mock
}

func (m *MockArtistService) List(ctx context.Context, limit, offset int) (*service.ListResult[model.Artist], error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Artist]), args.Error(1)
}

func (m *MockArtistService) Get(ctx context.Context, id string) (*model.Artist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistService) Create(ctx context.Context, userID string, in service.ArtistInput) (*model.Artist, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistService) Update(ctx context.Context, id string, patch map[string]any) (*model.Artist, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockArtistService) Restore(ctx context.Context, name, userID string) (*model.Artist, bool, error) {
	args := m.Called(ctx, name, userID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*model.Artist), args.Bool(1), args.Error(2)
}

func (m *MockArtistService) FindOrCreate(ctx context.Context, name string, legalName *string) (*model.Artist, error) {
	args := m.Called(ctx, name, legalName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

type MockParticipantService struct {
	mock.Mock
}

func (m *MockParticipantService) List(ctx context.Context, limit, offset int) (*service.ListResult[model.Participant], error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Participant]), args.Error(1)
}

func (m *MockParticipantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantService) Create(ctx context.Context, p model.Participant) (*model.Participant, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantService) Update(ctx context.Context, id string, patch map[string]any) (*model.Participant, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockWorkService struct {
	mock.Mock
}

func (m *MockWorkService) List(ctx context.Context, artistID string, limit, offset int) (*service.ListResult[model.Work], error) {
	args := m.Called(ctx, artistID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Work]), args.Error(1)
}

func (m *MockWorkService) Get(ctx context.Context, id string) (*model.Work, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Work), args.Error(1)
}

func (m *MockWorkService) Create(ctx context.Context, w model.Work) (*model.Work, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Work), args.Error(1)
}

func (m *MockWorkService) Update(ctx context.Context, id string, patch map[string]any) (*model.Work, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Work), args.Error(1)
}

func (m *MockWorkService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) List(ctx context.Context, limit, offset int) (*service.ListResult[model.Template], error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Template]), args.Error(1)
}

func (m *MockTemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) Create(ctx context.Context, t model.Template) (*model.Template, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) Update(ctx context.Context, id string, patch map[string]any) (*model.Template, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTemplateService) Seed(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
