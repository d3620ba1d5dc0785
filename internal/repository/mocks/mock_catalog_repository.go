package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type MockArtistRepository struct {
	mock.Mock
}

func (m *MockArtistRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Artist], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Artist]), args.Error(1)
}

func (m *MockArtistRepository) FindByID(ctx context.Context, id string) (*model.Artist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistRepository) FindByName(ctx context.Context, name string) (*model.Artist, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistRepository) FindByUserID(ctx context.Context, userID string) (*model.Artist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistRepository) Create(ctx context.Context, a *model.Artist) (*model.Artist, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistRepository) Update(ctx context.Context, id string, f repository.Fields) (*model.Artist, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artist), args.Error(1)
}

func (m *MockArtistRepository) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Participant], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Participant]), args.Error(1)
}

func (m *MockParticipantRepository) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Create(ctx context.Context, p *model.Participant) (*model.Participant, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Update(ctx context.Context, id string, f repository.Fields) (*model.Participant, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockParticipantRepository) SetVerificationStatus(ctx context.Context, verificationID, status string) (int64, error) {
	args := m.Called(ctx, verificationID, status)
	return args.Get(0).(int64), args.Error(1)
}

type MockWorkRepository struct {
	mock.Mock
}

func (m *MockWorkRepository) List(ctx context.Context, artistID string, pq repository.PageQuery) (*repository.PageResult[model.Work], error) {
	args := m.Called(ctx, artistID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Work]), args.Error(1)
}

func (m *MockWorkRepository) FindByID(ctx context.Context, id string) (*model.Work, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Work), args.Error(1)
}

func (m *MockWorkRepository) Create(ctx context.Context, w *model.Work) (*model.Work, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Work), args.Error(1)
}

func (m *MockWorkRepository) Update(ctx context.Context, id string, f repository.Fields) (*model.Work, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Work), args.Error(1)
}

func (m *MockWorkRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Template], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Template]), args.Error(1)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) Create(ctx context.Context, t *model.Template) (*model.Template, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) Update(ctx context.Context, id string, f repository.Fields) (*model.Template, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTemplateRepository) UpsertByName(ctx context.Context, t *model.Template) (*model.Template, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}
