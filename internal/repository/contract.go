package repository

import (
	"context"

	"backoffice/internal/model"
)

// ContractUpdate describes a contract change applied in one transaction.
// A nil Status leaves the status alone; ReplaceParticipants swaps the whole set.
type ContractUpdate struct {
	Status              *string
	ReplaceParticipants bool
	Participants        []model.ContractParticipant
}

type ContractRepository interface {
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Contract], error)
	// FindByID returns the contract with its participants.
	FindByID(ctx context.Context, id string) (*model.Contract, error)
	FindByAucoDocumentID(ctx context.Context, documentID string) (*model.Contract, error)
	Exists(ctx context.Context, id string) (bool, error)
	CreateWithParticipants(ctx context.Context, c *model.Contract, parts []model.ContractParticipant) (string, error)
	Update(ctx context.Context, id string, u ContractUpdate) error
	Delete(ctx context.Context, id string) error

	ListParticipants(ctx context.Context, contractID string) ([]model.ContractParticipant, error)
	AddParticipant(ctx context.Context, p model.ContractParticipant) error

	LoadBundle(ctx context.Context, id string) (*model.ContractBundle, error)
	MarkSent(ctx context.Context, id, documentCode, pdfKey string) error
	// MarkSignedIfComplete moves a draft/sent contract to signed when every
	// live signature on it is completed. It reports whether a row changed.
	MarkSignedIfComplete(ctx context.Context, id string) (bool, error)
}

// SignatureFilter narrows signature listings.
type SignatureFilter struct {
	ContractID      string
	Status          string
	IncludeArchived bool
}

type SignatureRepository interface {
	List(ctx context.Context, f SignatureFilter, pq PageQuery) (*PageResult[model.Signature], error)
	FindByID(ctx context.Context, id string) (*model.Signature, error)
	Create(ctx context.Context, s *model.Signature) (*model.Signature, error)
	Update(ctx context.Context, id string, status *string, archived *bool) (*model.Signature, error)
	SoftDelete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.SignatureStats, error)
	ListByContract(ctx context.Context, contractID string) ([]model.Signature, error)

	// DistinctRequestIDs lists every non-empty document code known locally.
	DistinctRequestIDs(ctx context.Context) ([]string, error)
	// Upsert writes one signer row keyed by (signature_request_id, signer_email)
	// and reports whether the row was inserted.
	Upsert(ctx context.Context, s *model.Signature) (bool, error)
	UpdateStatusByRequest(ctx context.Context, requestID, status string, documentURL *string) (int64, error)
	UpdateSignerStatus(ctx context.Context, requestID, email, status string) (int64, error)
	ContractIDsByRequest(ctx context.Context, requestID string) ([]string, error)
}
