package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const contractCols = `id, work_id, template_id, status, internal_reference, signing_location, additional_notes,
	publisher, publisher_percentage, co_publishers, publisher_admin, auco_document_id, final_contract_pdf_key,
	signed_at, created_at, updated_at`

const contractParticipantCols = `cp.contract_id, cp.participant_id, cp.role, cp.percentage,
	p.name, p.email, p.artistic_name, p.phone`

// ContractPostgres is a PostgreSQL implementation of repository.ContractRepository.
type ContractPostgres struct {
	db *sqlx.DB
}

func NewContractPostgres(db *sqlx.DB) *ContractPostgres {
	return &ContractPostgres{db: db}
}

var _ repository.ContractRepository = (*ContractPostgres)(nil)

func (r *ContractPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Contract], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM contracts`); err != nil {
		return nil, err
	}
	items := make([]model.Contract, 0)
	q := `SELECT ` + contractCols + ` FROM contracts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, q, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &repository.PageResult[model.Contract]{Items: items, Total: total}, nil
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
		items[i].Participants = []model.ContractParticipant{}
	}
	inQ, args, err := sqlx.In(`SELECT `+contractParticipantCols+`
		FROM contract_participants cp JOIN participants p ON p.id = cp.participant_id
		WHERE cp.contract_id IN (?) ORDER BY p.name`, ids)
	if err != nil {
		return nil, err
	}
	var parts []model.ContractParticipant
	if err := r.db.SelectContext(ctx, &parts, r.db.Rebind(inQ), args...); err != nil {
		return nil, err
	}
	byContract := make(map[string]int, len(items))
	for i := range items {
		byContract[items[i].ID] = i
	}
	for _, p := range parts {
		if i, ok := byContract[p.ContractID]; ok {
			items[i].Participants = append(items[i].Participants, p)
		}
	}
	return &repository.PageResult[model.Contract]{Items: items, Total: total}, nil
}

func (r *ContractPostgres) FindByID(ctx context.Context, id string) (*model.Contract, error) {
	var c model.Contract
	if err := r.db.GetContext(ctx, &c, `SELECT `+contractCols+` FROM contracts WHERE id = $1`, id); err != nil {
		return nil, err
	}
	parts, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Participants = parts
	return &c, nil
}

func (r *ContractPostgres) FindByAucoDocumentID(ctx context.Context, documentID string) (*model.Contract, error) {
	var c model.Contract
	q := `SELECT ` + contractCols + ` FROM contracts WHERE auco_document_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &c, q, documentID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContractPostgres) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id::text = $1)`, id); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *ContractPostgres) CreateWithParticipants(ctx context.Context, c *model.Contract, parts []model.ContractParticipant) (string, error) {
	var id string
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const q = `
			INSERT INTO contracts (work_id, template_id, status, internal_reference, signing_location, additional_notes,
				publisher, publisher_percentage, co_publishers, publisher_admin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`
		if err := tx.GetContext(ctx, &id, q,
			c.WorkID, c.TemplateID, c.Status, c.InternalReference, c.SigningLocation, c.AdditionalNotes,
			c.Publisher, c.PublisherPercentage, c.CoPublishers, c.PublisherAdmin,
		); err != nil {
			return fmt.Errorf("insert contract: %w", err)
		}
		return insertContractParticipants(ctx, tx, id, parts)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func insertContractParticipants(ctx context.Context, tx *sqlx.Tx, contractID string, parts []model.ContractParticipant) error {
	const q = `INSERT INTO contract_participants (contract_id, participant_id, role, percentage) VALUES ($1, $2, $3, $4)`
	for _, p := range parts {
		if _, err := tx.ExecContext(ctx, q, contractID, p.ParticipantID, p.Role, p.Percentage); err != nil {
			return fmt.Errorf("insert participant %s: %w", p.ParticipantID, err)
		}
	}
	return nil
}

func (r *ContractPostgres) Update(ctx context.Context, id string, u repository.ContractUpdate) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if u.Status != nil {
			if err := execOne(ctx, tx, `UPDATE contracts SET status = $1, updated_at = now() WHERE id = $2`, *u.Status, id); err != nil {
				return err
			}
		} else if err := execOne(ctx, tx, `UPDATE contracts SET updated_at = now() WHERE id = $1`, id); err != nil {
			return err
		}
		if !u.ReplaceParticipants {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contract_participants WHERE contract_id = $1`, id); err != nil {
			return fmt.Errorf("clear participants: %w", err)
		}
		return insertContractParticipants(ctx, tx, id, u.Participants)
	})
}

func (r *ContractPostgres) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM contracts WHERE id = $1`, id)
}

func (r *ContractPostgres) ListParticipants(ctx context.Context, contractID string) ([]model.ContractParticipant, error) {
	parts := make([]model.ContractParticipant, 0)
	q := `SELECT ` + contractParticipantCols + `
		FROM contract_participants cp JOIN participants p ON p.id = cp.participant_id
		WHERE cp.contract_id = $1 ORDER BY p.name`
	if err := r.db.SelectContext(ctx, &parts, q, contractID); err != nil {
		return nil, err
	}
	return parts, nil
}

func (r *ContractPostgres) AddParticipant(ctx context.Context, p model.ContractParticipant) error {
	const q = `INSERT INTO contract_participants (contract_id, participant_id, role, percentage) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, p.ContractID, p.ParticipantID, p.Role, p.Percentage)
	return duplicate(err)
}

func (r *ContractPostgres) LoadBundle(ctx context.Context, id string) (*model.ContractBundle, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b := &model.ContractBundle{Contract: *c}
	if err := r.db.GetContext(ctx, &b.Work, `SELECT `+workCols+` FROM works WHERE id = $1`, c.WorkID); err != nil {
		return nil, fmt.Errorf("load work: %w", err)
	}
	if err := r.db.GetContext(ctx, &b.Template, `SELECT `+templateCols+` FROM templates WHERE id = $1`, c.TemplateID); err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	return b, nil
}

func (r *ContractPostgres) MarkSent(ctx context.Context, id, documentCode, pdfKey string) error {
	const q = `
		UPDATE contracts
		SET auco_document_id = $1, final_contract_pdf_key = NULLIF($2, ''), status = 'sent', updated_at = now()
		WHERE id = $3`
	return execOne(ctx, r.db, q, documentCode, pdfKey, id)
}

func (r *ContractPostgres) MarkSignedIfComplete(ctx context.Context, id string) (bool, error) {
	const q = `
		UPDATE contracts c
		SET status = 'signed', signed_at = now(), updated_at = now()
		WHERE c.id = $1
		  AND c.status IN ('draft', 'sent')
		  AND EXISTS (SELECT 1 FROM signatures s WHERE s.contract_id = c.id AND s.deleted_at IS NULL)
		  AND NOT EXISTS (
			SELECT 1 FROM signatures s
			WHERE s.contract_id = c.id AND s.deleted_at IS NULL AND s.status <> 'completed'
		  )`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
