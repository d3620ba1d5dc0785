package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const artistCols = `id, user_id, name, legal_name, genre, country, bio, email, phone, spotify_artist_id, created_at, updated_at`

// ArtistPostgres is a PostgreSQL implementation of repository.ArtistRepository.
type ArtistPostgres struct {
	db *sqlx.DB
}

func NewArtistPostgres(db *sqlx.DB) *ArtistPostgres {
	return &ArtistPostgres{db: db}
}

var _ repository.ArtistRepository = (*ArtistPostgres)(nil)

func (r *ArtistPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Artist], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM artists WHERE deleted_at IS NULL`); err != nil {
		return nil, err
	}
	items := make([]model.Artist, 0)
	q := `SELECT ` + artistCols + ` FROM artists WHERE deleted_at IS NULL ORDER BY name ASC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, q, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Artist]{Items: items, Total: total}, nil
}

func (r *ArtistPostgres) FindByID(ctx context.Context, id string) (*model.Artist, error) {
	var a model.Artist
	q := `SELECT ` + artistCols + ` FROM artists WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArtistPostgres) FindByName(ctx context.Context, name string) (*model.Artist, error) {
	var a model.Artist
	q := `SELECT ` + artistCols + ` FROM artists WHERE lower(name) = lower($1) AND deleted_at IS NULL LIMIT 1`
	if err := r.db.GetContext(ctx, &a, q, name); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArtistPostgres) FindByUserID(ctx context.Context, userID string) (*model.Artist, error) {
	var a model.Artist
	q := `SELECT ` + artistCols + ` FROM artists WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at ASC LIMIT 1`
	if err := r.db.GetContext(ctx, &a, q, userID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArtistPostgres) Create(ctx context.Context, a *model.Artist) (*model.Artist, error) {
	q := `
		INSERT INTO artists (user_id, name, legal_name, genre, country, bio, email, phone, spotify_artist_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + artistCols
	var out model.Artist
	if err := r.db.GetContext(ctx, &out, q,
		a.UserID, a.Name, a.LegalName, a.Genre, a.Country, a.Bio, a.Email, a.Phone, a.SpotifyArtistID,
	); err != nil {
		return nil, duplicate(err)
	}
	return &out, nil
}

func (r *ArtistPostgres) Update(ctx context.Context, id string, f repository.Fields) (*model.Artist, error) {
	set, args := updateSet(f, true)
	q := `UPDATE artists SET ` + set + ` WHERE id = $` + itoa(len(args)+1) + ` AND deleted_at IS NULL RETURNING ` + artistCols
	var out model.Artist
	if err := r.db.GetContext(ctx, &out, q, append(args, id)...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ArtistPostgres) SoftDelete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `UPDATE artists SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
}

const participantCols = `id, name, email, type, id_number, address, country, phone, bank_info, artistic_name, management_entity, ipi, auco_verification_id, verification_status, created_at, updated_at`

// ParticipantPostgres is a PostgreSQL implementation of repository.ParticipantRepository.
type ParticipantPostgres struct {
	db *sqlx.DB
}

func NewParticipantPostgres(db *sqlx.DB) *ParticipantPostgres {
	return &ParticipantPostgres{db: db}
}

var _ repository.ParticipantRepository = (*ParticipantPostgres)(nil)

func (r *ParticipantPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Participant], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM participants`); err != nil {
		return nil, err
	}
	items := make([]model.Participant, 0)
	q := `SELECT ` + participantCols + ` FROM participants ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, q, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Participant]{Items: items, Total: total}, nil
}

func (r *ParticipantPostgres) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	var p model.Participant
	if err := r.db.GetContext(ctx, &p, `SELECT `+participantCols+` FROM participants WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantPostgres) Create(ctx context.Context, p *model.Participant) (*model.Participant, error) {
	q := `
		INSERT INTO participants (name, email, type, id_number, address, country, phone, bank_info, artistic_name, management_entity, ipi)
		VALUES (:name, :email, :type, :id_number, :address, :country, :phone, :bank_info, :artistic_name, :management_entity, :ipi)
		RETURNING ` + participantCols
	rows, err := r.db.NamedQueryContext(ctx, q, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out model.Participant
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errNoRows
	}
	if err := rows.StructScan(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ParticipantPostgres) Update(ctx context.Context, id string, f repository.Fields) (*model.Participant, error) {
	set, args := updateSet(f, true)
	q := `UPDATE participants SET ` + set + ` WHERE id = $` + itoa(len(args)+1) + ` RETURNING ` + participantCols
	var out model.Participant
	if err := r.db.GetContext(ctx, &out, q, append(args, id)...); err != nil {
		return nil, duplicate(err)
	}
	return &out, nil
}

func (r *ParticipantPostgres) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM participants WHERE id = $1`, id)
}

func (r *ParticipantPostgres) SetVerificationStatus(ctx context.Context, verificationID, status string) (int64, error) {
	const q = `UPDATE participants SET verification_status = $2, updated_at = now() WHERE auco_verification_id = $1`
	res, err := r.db.ExecContext(ctx, q, verificationID, status)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const workCols = `id, artist_id, name, alternative_title, iswc, isrc, upc, type, status, release_date, created_at, updated_at`

// WorkPostgres is a PostgreSQL implementation of repository.WorkRepository.
type WorkPostgres struct {
	db *sqlx.DB
}

func NewWorkPostgres(db *sqlx.DB) *WorkPostgres {
	return &WorkPostgres{db: db}
}

var _ repository.WorkRepository = (*WorkPostgres)(nil)

func (r *WorkPostgres) List(ctx context.Context, artistID string, pq repository.PageQuery) (*repository.PageResult[model.Work], error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM works WHERE ($1 = '' OR artist_id::text = $1)`, artistID); err != nil {
		return nil, err
	}
	items := make([]model.Work, 0)
	q := `SELECT ` + workCols + ` FROM works WHERE ($1 = '' OR artist_id::text = $1)
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &items, q, artistID, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Work]{Items: items, Total: total}, nil
}

func (r *WorkPostgres) FindByID(ctx context.Context, id string) (*model.Work, error) {
	var w model.Work
	if err := r.db.GetContext(ctx, &w, `SELECT `+workCols+` FROM works WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkPostgres) Create(ctx context.Context, w *model.Work) (*model.Work, error) {
	q := `
		INSERT INTO works (artist_id, name, alternative_title, iswc, isrc, upc, type, status, release_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + workCols
	var out model.Work
	if err := r.db.GetContext(ctx, &out, q,
		w.ArtistID, w.Name, w.AlternativeTitle, w.ISWC, w.ISRC, w.UPC, w.Type, w.Status, w.ReleaseDate,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *WorkPostgres) Update(ctx context.Context, id string, f repository.Fields) (*model.Work, error) {
	set, args := updateSet(f, true)
	q := `UPDATE works SET ` + set + ` WHERE id = $` + itoa(len(args)+1) + ` RETURNING ` + workCols
	var out model.Work
	if err := r.db.GetContext(ctx, &out, q, append(args, id)...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *WorkPostgres) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM works WHERE id = $1`, id)
}

const templateCols = `id, name, language, type, version, jurisdiction, template_html, created_at, updated_at`

// TemplatePostgres is a PostgreSQL implementation of repository.TemplateRepository.
type TemplatePostgres struct {
	db *sqlx.DB
}

func NewTemplatePostgres(db *sqlx.DB) *TemplatePostgres {
	return &TemplatePostgres{db: db}
}

var _ repository.TemplateRepository = (*TemplatePostgres)(nil)

func (r *TemplatePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Template], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM templates`); err != nil {
		return nil, err
	}
	items := make([]model.Template, 0)
	q := `SELECT ` + templateCols + ` FROM templates ORDER BY name ASC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, q, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Template]{Items: items, Total: total}, nil
}

func (r *TemplatePostgres) FindByID(ctx context.Context, id string) (*model.Template, error) {
	var t model.Template
	if err := r.db.GetContext(ctx, &t, `SELECT `+templateCols+` FROM templates WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplatePostgres) Create(ctx context.Context, t *model.Template) (*model.Template, error) {
	q := `
		INSERT INTO templates (name, language, type, version, jurisdiction, template_html)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + templateCols
	var out model.Template
	if err := r.db.GetContext(ctx, &out, q, t.Name, t.Language, t.Type, t.Version, t.Jurisdiction, t.TemplateHTML); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TemplatePostgres) UpsertByName(ctx context.Context, t *model.Template) (*model.Template, error) {
	q := `
		INSERT INTO templates (name, language, type, version, jurisdiction, template_html)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			language = EXCLUDED.language,
			type = EXCLUDED.type,
			version = EXCLUDED.version,
			jurisdiction = EXCLUDED.jurisdiction,
			template_html = EXCLUDED.template_html,
			updated_at = now()
		RETURNING ` + templateCols
	var out model.Template
	if err := r.db.GetContext(ctx, &out, q, t.Name, t.Language, t.Type, t.Version, t.Jurisdiction, t.TemplateHTML); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TemplatePostgres) Update(ctx context.Context, id string, f repository.Fields) (*model.Template, error) {
	set, args := updateSet(f, true)
	q := `UPDATE templates SET ` + set + ` WHERE id = $` + itoa(len(args)+1) + ` RETURNING ` + templateCols
	var out model.Template
	if err := r.db.GetContext(ctx, &out, q, append(args, id)...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TemplatePostgres) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM templates WHERE id = $1`, id)
}
