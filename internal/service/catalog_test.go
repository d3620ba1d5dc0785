package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice/internal/model"
	"backoffice/internal/repository"
	repoMocks "backoffice/internal/repository/mocks"
)

func TestBuildFields(t *testing.T) {
	allowed := map[string]fieldKind{
		"name":    kindText,
		"note":    kindNullText,
		"meta":    kindJSON,
		"active":  kindBool,
		"pct":     kindNumber,
		"plays":   kindInt,
		"release": kindTime,
	}

	t.Run("converts every kind", func(t *testing.T) {
		f, err := buildFields(map[string]any{
			"name":    "  Ana ",
			"note":    "",
			"meta":    map[string]any{"iban": "ES00"},
			"active":  true,
			"pct":     12.5,
			"plays":   float64(3),
			"release": "2024-02-01",
			"ignored": "x",
		}, allowed)
		require.NoError(t, err)
		assert.Equal(t, repository.Fields{
			"name":    "Ana",
			"note":    nil,
			"meta":    types.JSONText(`{"iban":"ES00"}`),
			"active":  true,
			"pct":     12.5,
			"plays":   int64(3),
			"release": time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}, f)
	})

	tests := []struct {
		name  string
		patch map[string]any
	}{
		{"only unknown keys", map[string]any{"id": "x"}},
		{"empty required text", map[string]any{"name": " "}},
		{"non-string text", map[string]any{"note": 3.0}},
		{"invalid json string", map[string]any{"meta": "{nope"}},
		{"non-bool", map[string]any{"active": "yes"}},
		{"fractional int", map[string]any{"plays": 1.5}},
		{"bad date", map[string]any{"release": "01/02/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildFields(tt.patch, allowed)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestArtistService_Create(t *testing.T) {
	ctx := context.Background()
	bad := "not-an-email"

	tests := []struct {
		name       string
		userID     string
		in         ArtistInput
		setupMocks func(repo *repoMocks.MockArtistRepository)
		wantErr    error
	}{
		{
			name:   "defaults genre and country",
			userID: "u1",
			in:     ArtistInput{Name: " Rosa "},
			setupMocks: func(repo *repoMocks.MockArtistRepository) {
				repo.On("Create", ctx, mock.MatchedBy(func(a *model.Artist) bool {
					return a.Name == "Rosa" && a.Genre == defaultGenre && a.Country == defaultCountry && *a.UserID == "u1"
				})).Return(&model.Artist{ID: "a1", Name: "Rosa"}, nil)
			},
		},
		{
			name:       "name required",
			in:         ArtistInput{Name: "  "},
			setupMocks: func(repo *repoMocks.MockArtistRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "invalid email",
			in:         ArtistInput{Name: "Rosa", Email: &bad},
			setupMocks: func(repo *repoMocks.MockArtistRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name: "duplicate name",
			in:   ArtistInput{Name: "Rosa"},
			setupMocks: func(repo *repoMocks.MockArtistRepository) {
				repo.On("Create", ctx, mock.Anything).Return(nil, fmt.Errorf("insert: %w", repository.ErrDuplicate))
			},
			wantErr: ErrConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockArtistRepository)
			tt.setupMocks(repo)
			svc := NewArtistService(repo)

			got, err := svc.Create(ctx, tt.userID, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a1", got.ID)
			repo.AssertExpectations(t)
		})
	}
}

func TestArtistService_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("existing artist", func(t *testing.T) {
		repo := new(repoMocks.MockArtistRepository)
		repo.On("FindByName", ctx, "Rosa").Return(&model.Artist{ID: "a1", Name: "Rosa"}, nil)

		a, created, err := NewArtistService(repo).Restore(ctx, "Rosa", "u1")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "a1", a.ID)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing artist is created", func(t *testing.T) {
		repo := new(repoMocks.MockArtistRepository)
		repo.On("FindByName", ctx, "Rosa").Return(nil, sql.ErrNoRows)
		repo.On("Create", ctx, mock.AnythingOfType("*model.Artist")).Return(&model.Artist{ID: "a2", Name: "Rosa"}, nil)

		a, created, err := NewArtistService(repo).Restore(ctx, " Rosa ", "u1")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "a2", a.ID)
	})
}

func TestArtistService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockArtistRepository)
	repo.On("Update", ctx, "a1", repository.Fields{"genre": "Salsa", "bio": nil}).Return(&model.Artist{ID: "a1", Genre: "Salsa"}, nil)
	repo.On("Update", ctx, "missing", mock.Anything).Return(nil, sql.ErrNoRows)
	svc := NewArtistService(repo)

	a, err := svc.Update(ctx, "a1", map[string]any{"genre": "Salsa", "bio": "", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, "Salsa", a.Genre)

	_, err = svc.Update(ctx, "a1", map[string]any{"email": "nope"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, "missing", map[string]any{"genre": "Rock"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParticipantService_Create(t *testing.T) {
	ctx := context.Background()
	email := " ana@example.com "
	bad := "ana"
	blank := types.JSONText(" ")

	t.Run("normalises type, email and empty bank info", func(t *testing.T) {
		repo := new(repoMocks.MockParticipantRepository)
		repo.On("Create", ctx, mock.MatchedBy(func(p *model.Participant) bool {
			return p.Type == model.ParticipantProductor && *p.Email == "ana@example.com" && p.BankInfo == nil
		})).Return(&model.Participant{ID: "p1"}, nil)

		got, err := NewParticipantService(repo).Create(ctx, model.Participant{Name: "Ana", Type: "productor", Email: &email, BankInfo: &blank})
		require.NoError(t, err)
		assert.Equal(t, "p1", got.ID)
		repo.AssertExpectations(t)
	})

	invalidCases := []model.Participant{
		{Name: "", Type: "ARTISTA"},
		{Name: "Ana", Type: "DJ"},
		{Name: "Ana", Type: "ARTISTA", Email: &bad},
	}
	for _, p := range invalidCases {
		repo := new(repoMocks.MockParticipantRepository)
		_, err := NewParticipantService(repo).Create(ctx, p)
		assert.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}

	t.Run("update upper-cases type", func(t *testing.T) {
		repo := new(repoMocks.MockParticipantRepository)
		repo.On("Update", ctx, "p1", repository.Fields{"type": "MANAGER"}).Return(&model.Participant{ID: "p1", Type: "MANAGER"}, nil)

		got, err := NewParticipantService(repo).Update(ctx, "p1", map[string]any{"type": "manager"})
		require.NoError(t, err)
		assert.Equal(t, "MANAGER", got.Type)
	})
}

func TestWorkService_Create(t *testing.T) {
	ctx := context.Background()

	repo := new(repoMocks.MockWorkRepository)
	repo.On("Create", ctx, mock.MatchedBy(func(w *model.Work) bool {
		return w.Type == "single" && w.Status == "planned"
	})).Return(&model.Work{ID: "w1"}, nil)
	svc := NewWorkService(repo)

	got, err := svc.Create(ctx, model.Work{Name: "Luz", ArtistID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "w1", got.ID)

	_, err = svc.Create(ctx, model.Work{Name: "Luz", ArtistID: "a1", Type: "boxset"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, "w1", map[string]any{"status": "shelved"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTemplateService_Seed(t *testing.T) {
	ctx := context.Background()

	tpls, err := DefaultTemplates()
	require.NoError(t, err)
	require.NotEmpty(t, tpls)
	for _, tpl := range tpls {
		assert.NotEmpty(t, tpl.Name)
		assert.Contains(t, tpl.TemplateHTML, "{{participants.table}}")
	}

	repo := new(repoMocks.MockTemplateRepository)
	repo.On("UpsertByName", ctx, mock.AnythingOfType("*model.Template")).Return(&model.Template{ID: "t"}, nil)

	n, err := NewTemplateService(repo, nil).Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(tpls), n)
	repo.AssertNumberOfCalls(t, "UpsertByName", len(tpls))
}
