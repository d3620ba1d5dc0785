package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"backoffice/internal/auth"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

var signatureStatuses = []string{
	model.SignaturePending,
	model.SignatureSent,
	model.SignatureViewed,
	model.SignatureSigned,
	model.SignatureCompleted,
	model.SignatureRejected,
	model.SignatureExpired,
	model.SignatureUnknown,
}

// SignatureInput registers a signer on a contract by hand.
type SignatureInput struct {
	ContractID   string  `json:"contract_id"`
	SignerEmail  string  `json:"signer_email"`
	SignerName   *string `json:"signer_name"`
	SignerPhone  *string `json:"signer_phone"`
	DocumentName *string `json:"document_name"`
}

type SignaturePatch struct {
	Status   *string `json:"status"`
	Archived *bool   `json:"archived"`
}

// SignatureService exposes the locally stored signature rows.
type SignatureService interface {
	List(ctx context.Context, f repository.SignatureFilter, limit, offset int) (*ListResult[model.Signature], error)
	Get(ctx context.Context, id string) (*model.Signature, error)
	Create(ctx context.Context, in SignatureInput) (*model.Signature, error)
	Update(ctx context.Context, id string, p SignaturePatch) (*model.Signature, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.SignatureStats, error)
}

type signatureService struct {
	repo      repository.SignatureRepository
	contracts repository.ContractRepository
}

func NewSignatureService(repo repository.SignatureRepository, contracts repository.ContractRepository) SignatureService {
	return &signatureService{repo: repo, contracts: contracts}
}

// NewRequestID returns a local signature request id of the form sr_<32 hex>.
func NewRequestID() string {
	return "sr_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *signatureService) List(ctx context.Context, f repository.SignatureFilter, limit, offset int) (*ListResult[model.Signature], error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	if f.Status != "" && !oneOf(f.Status, signatureStatuses...) {
		return nil, invalid("unknown status %q", f.Status)
	}
	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Signature]{Items: res.Items, Total: res.Total}, nil
}

func (s *signatureService) Get(ctx context.Context, id string) (*model.Signature, error) {
	sig, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "signature")
	}
	return sig, nil
}

func (s *signatureService) Create(ctx context.Context, in SignatureInput) (*model.Signature, error) {
	contractID := strings.TrimSpace(in.ContractID)
	email := strings.ToLower(strings.TrimSpace(in.SignerEmail))
	if contractID == "" || email == "" {
		return nil, invalid("contract_id and signer_email are required")
	}
	if !auth.IsValidEmail(email) {
		return nil, invalid("invalid signer_email")
	}
	ok, err := s.contracts.Exists(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("contract")
	}
	sig, err := s.repo.Create(ctx, &model.Signature{
		ContractID:         &contractID,
		SignatureRequestID: NewRequestID(),
		SignerEmail:        email,
		SignerName:         trimPtr(in.SignerName),
		SignerPhone:        trimPtr(in.SignerPhone),
		DocumentName:       trimPtr(in.DocumentName),
		Status:             model.SignaturePending,
	})
	if err != nil {
		return nil, fmt.Errorf("create signature: %w", err)
	}
	return sig, nil
}

func (s *signatureService) Update(ctx context.Context, id string, p SignaturePatch) (*model.Signature, error) {
	if p.Status == nil && p.Archived == nil {
		return nil, invalid("status or archived is required")
	}
	if p.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*p.Status))
		if !oneOf(st, signatureStatuses...) {
			return nil, invalid("unknown status %q", st)
		}
		p.Status = &st
	}
	sig, err := s.repo.Update(ctx, id, p.Status, p.Archived)
	if err != nil {
		return nil, mapNotFound(err, "signature")
	}
	return sig, nil
}

func (s *signatureService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.repo.SoftDelete(ctx, id), "signature")
}

func (s *signatureService) Stats(ctx context.Context) (*model.SignatureStats, error) {
	return s.repo.Stats(ctx)
}
