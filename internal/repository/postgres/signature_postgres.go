package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const signatureCols = `id, contract_id, signature_request_id, signer_email, signer_name, signer_phone, status,
	document_url, document_name, creator_email, signature_platform, signature_location, reading_time,
	archived, signed_at, completed_at, created_at, updated_at`

// SignaturePostgres is a PostgreSQL implementation of repository.SignatureRepository.
type SignaturePostgres struct {
	db *sqlx.DB
}

func NewSignaturePostgres(db *sqlx.DB) *SignaturePostgres {
	return &SignaturePostgres{db: db}
}

var _ repository.SignatureRepository = (*SignaturePostgres)(nil)

const signatureFilter = `deleted_at IS NULL
	AND ($1 = '' OR contract_id::text = $1)
	AND ($2 = '' OR status = $2)
	AND ($3 OR archived = false)`

func (r *SignaturePostgres) List(ctx context.Context, f repository.SignatureFilter, pq repository.PageQuery) (*repository.PageResult[model.Signature], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM signatures WHERE `+signatureFilter,
		f.ContractID, f.Status, f.IncludeArchived); err != nil {
		return nil, err
	}
	items := make([]model.Signature, 0)
	q := `SELECT ` + signatureCols + ` FROM signatures WHERE ` + signatureFilter + `
		ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5`
	if err := r.db.SelectContext(ctx, &items, q, f.ContractID, f.Status, f.IncludeArchived, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Signature]{Items: items, Total: total}, nil
}

func (r *SignaturePostgres) FindByID(ctx context.Context, id string) (*model.Signature, error) {
	var s model.Signature
	q := `SELECT ` + signatureCols + ` FROM signatures WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SignaturePostgres) Create(ctx context.Context, s *model.Signature) (*model.Signature, error) {
	q := `
		INSERT INTO signatures (contract_id, signature_request_id, signer_email, signer_name, signer_phone, status,
			document_name, creator_email, signature_platform)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + signatureCols
	var out model.Signature
	if err := r.db.GetContext(ctx, &out, q,
		s.ContractID, s.SignatureRequestID, s.SignerEmail, s.SignerName, s.SignerPhone, s.Status,
		s.DocumentName, s.CreatorEmail, s.SignaturePlatform,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SignaturePostgres) Update(ctx context.Context, id string, status *string, archived *bool) (*model.Signature, error) {
	q := `
		UPDATE signatures
		SET status = COALESCE($1, status),
			archived = COALESCE($2, archived),
			completed_at = CASE WHEN $1 = 'completed' AND completed_at IS NULL THEN now() ELSE completed_at END,
			updated_at = now()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING ` + signatureCols
	var out model.Signature
	if err := r.db.GetContext(ctx, &out, q, status, archived, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SignaturePostgres) SoftDelete(ctx context.Context, id string) error {
	const q = `UPDATE signatures SET deleted_at = now(), archived = true, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.db, q, id)
}

func (r *SignaturePostgres) Stats(ctx context.Context) (*model.SignatureStats, error) {
	const q = `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('pending', 'sent', 'viewed')) AS pending,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM signatures WHERE deleted_at IS NULL`
	var st model.SignatureStats
	if err := r.db.GetContext(ctx, &st, q); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *SignaturePostgres) ListByContract(ctx context.Context, contractID string) ([]model.Signature, error) {
	items := make([]model.Signature, 0)
	q := `SELECT ` + signatureCols + ` FROM signatures WHERE contract_id = $1 AND deleted_at IS NULL ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &items, q, contractID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SignaturePostgres) DistinctRequestIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	const q = `
		SELECT DISTINCT signature_request_id FROM signatures
		WHERE signature_request_id IS NOT NULL AND signature_request_id <> '' AND deleted_at IS NULL`
	if err := r.db.SelectContext(ctx, &ids, q); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SignaturePostgres) Upsert(ctx context.Context, s *model.Signature) (bool, error) {
	const q = `
		INSERT INTO signatures (contract_id, signature_request_id, signer_email, signer_name, signer_phone, status,
			document_url, document_name, creator_email, signature_platform, signature_location, reading_time,
			signed_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (signature_request_id, signer_email) DO UPDATE SET
			contract_id = COALESCE(EXCLUDED.contract_id, signatures.contract_id),
			signer_name = COALESCE(EXCLUDED.signer_name, signatures.signer_name),
			signer_phone = COALESCE(EXCLUDED.signer_phone, signatures.signer_phone),
			status = EXCLUDED.status,
			document_url = COALESCE(EXCLUDED.document_url, signatures.document_url),
			document_name = COALESCE(EXCLUDED.document_name, signatures.document_name),
			creator_email = COALESCE(EXCLUDED.creator_email, signatures.creator_email),
			signature_platform = COALESCE(EXCLUDED.signature_platform, signatures.signature_platform),
			signature_location = COALESCE(EXCLUDED.signature_location, signatures.signature_location),
			reading_time = COALESCE(EXCLUDED.reading_time, signatures.reading_time),
			signed_at = COALESCE(EXCLUDED.signed_at, signatures.signed_at),
			completed_at = COALESCE(signatures.completed_at, EXCLUDED.completed_at),
			updated_at = now()
		RETURNING (xmax = 0) AS inserted`
	var inserted bool
	err := r.db.GetContext(ctx, &inserted, q,
		s.ContractID, s.SignatureRequestID, s.SignerEmail, s.SignerName, s.SignerPhone, s.Status,
		s.DocumentURL, s.DocumentName, s.CreatorEmail, s.SignaturePlatform, s.SignatureLocation, s.ReadingTime,
		s.SignedAt, s.CompletedAt,
	)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *SignaturePostgres) UpdateStatusByRequest(ctx context.Context, requestID, status string, documentURL *string) (int64, error) {
	const q = `
		UPDATE signatures
		SET status = $1,
			document_url = COALESCE($2, document_url),
			completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, now()) ELSE completed_at END,
			signed_at = CASE WHEN $1 IN ('completed', 'signed') THEN COALESCE(signed_at, now()) ELSE signed_at END,
			updated_at = now()
		WHERE signature_request_id = $3 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, status, documentURL, requestID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SignaturePostgres) UpdateSignerStatus(ctx context.Context, requestID, email, status string) (int64, error) {
	const q = `
		UPDATE signatures
		SET status = $1,
			signed_at = CASE WHEN $1 IN ('completed', 'signed') THEN COALESCE(signed_at, now()) ELSE signed_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, now()) ELSE completed_at END,
			updated_at = now()
		WHERE signature_request_id = $2 AND signer_email = lower(trim($3)) AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, status, requestID, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SignaturePostgres) ContractIDsByRequest(ctx context.Context, requestID string) ([]string, error) {
	ids := make([]string, 0)
	const q = `
		SELECT DISTINCT contract_id::text FROM signatures
		WHERE signature_request_id = $1 AND contract_id IS NOT NULL AND deleted_at IS NULL`
	if err := r.db.SelectContext(ctx, &ids, q, requestID); err != nil {
		return nil, err
	}
	return ids, nil
}
