package repository

import (
	"context"

	"backoffice/internal/model"
)

type ArtistRepository interface {
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Artist], error)
	FindByID(ctx context.Context, id string) (*model.Artist, error)
	// FindByName matches case-insensitively among non-deleted artists.
	FindByName(ctx context.Context, name string) (*model.Artist, error)
	FindByUserID(ctx context.Context, userID string) (*model.Artist, error)
	Create(ctx context.Context, a *model.Artist) (*model.Artist, error)
	Update(ctx context.Context, id string, f Fields) (*model.Artist, error)
	SoftDelete(ctx context.Context, id string) error
}

type ParticipantRepository interface {
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Participant], error)
	FindByID(ctx context.Context, id string) (*model.Participant, error)
	Create(ctx context.Context, p *model.Participant) (*model.Participant, error)
	Update(ctx context.Context, id string, f Fields) (*model.Participant, error)
	Delete(ctx context.Context, id string) error
	// SetVerificationStatus updates the participant linked to an Auco
	// identity verification and returns the number of rows changed.
	SetVerificationStatus(ctx context.Context, verificationID, status string) (int64, error)
}

type WorkRepository interface {
	List(ctx context.Context, artistID string, pq PageQuery) (*PageResult[model.Work], error)
	FindByID(ctx context.Context, id string) (*model.Work, error)
	Create(ctx context.Context, w *model.Work) (*model.Work, error)
	Update(ctx context.Context, id string, f Fields) (*model.Work, error)
	Delete(ctx context.Context, id string) error
}

type TemplateRepository interface {
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Template], error)
	FindByID(ctx context.Context, id string) (*model.Template, error)
	Create(ctx context.Context, t *model.Template) (*model.Template, error)
	Update(ctx context.Context, id string, f Fields) (*model.Template, error)
	Delete(ctx context.Context, id string) error
	// UpsertByName inserts the template or replaces the body of the one with the same name.
	UpsertByName(ctx context.Context, t *model.Template) (*model.Template, error)
}
