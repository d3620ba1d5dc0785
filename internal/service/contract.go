package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"backoffice/internal/contracttpl"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// ParticipantShare is one party of a contract as submitted by clients.
type ParticipantShare struct {
	ID         string   `json:"id"`
	Role       string   `json:"role"`
	Percentage *float64 `json:"percentage"`
}

// ContractInput is the payload accepted when drafting a contract.
type ContractInput struct {
	WorkID              string             `json:"work_id"`
	TemplateID          string             `json:"template_id"`
	Status              string             `json:"status"`
	InternalReference   *string            `json:"internal_reference"`
	SigningLocation     *string            `json:"signing_location"`
	AdditionalNotes     *string            `json:"additional_notes"`
	Publisher           *string            `json:"publisher"`
	PublisherPercentage *float64           `json:"publisher_percentage"`
	CoPublishers        *string            `json:"co_publishers"`
	PublisherAdmin      *string            `json:"publisher_admin"`
	Participants        []ParticipantShare `json:"participants"`
}

// ContractPatch changes the status and/or replaces the participant set.
type ContractPatch struct {
	Status       *string             `json:"status"`
	Participants *[]ParticipantShare `json:"participants"`
}

// ContractParticipantInput links one participant to an existing contract.
type ContractParticipantInput struct {
	ContractID    string   `json:"contract_id"`
	ParticipantID string   `json:"participant_id"`
	Role          string   `json:"role"`
	Percentage    *float64 `json:"percentage"`
}

const defaultParticipantRole = "PARTICIPANTE"

var contractTransitions = map[string][]string{
	model.ContractDraft:    {model.ContractSent, model.ContractArchived},
	model.ContractSent:     {model.ContractSigned, model.ContractExpired, model.ContractArchived, model.ContractDraft},
	model.ContractSigned:   {model.ContractArchived},
	model.ContractExpired:  {model.ContractDraft, model.ContractArchived},
	model.ContractArchived: {},
}

// IsContractStatus reports whether s is a known contract status.
func IsContractStatus(s string) bool {
	_, ok := contractTransitions[s]
	return ok
}

// CanTransition reports whether a contract may move from one status to another.
// Staying on the same status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return IsContractStatus(to)
	}
	return oneOf(to, contractTransitions[from]...)
}

const shareTolerance = 0.01

// ValidateShares checks the participant list of a contract: ids and roles are
// required, ids are unique, every percentage lies in [0,100], the provided
// percentages add up to at most 100 and to exactly 100 when all are provided.
func ValidateShares(parts []ParticipantShare) error {
	if len(parts) == 0 {
		return invalid("participants must be a non-empty array")
	}
	seen := make(map[string]struct{}, len(parts))
	var sum float64
	withPct := 0
	for i, p := range parts {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return invalid("participants[%d].id is required", i)
		}
		if len(strings.TrimSpace(p.Role)) < 2 {
			return invalid("participants[%d].role must have at least 2 characters", i)
		}
		if _, dup := seen[id]; dup {
			return invalid("participant %s is listed more than once", id)
		}
		seen[id] = struct{}{}
		if p.Percentage == nil {
			continue
		}
		pct := *p.Percentage
		if math.IsNaN(pct) || pct < 0 || pct > 100 {
			return invalid("participants[%d].percentage must be between 0 and 100", i)
		}
		sum += pct
		withPct++
	}
	if sum > 100+shareTolerance {
		return invalid("percentages add up to %.2f, more than 100", sum)
	}
	if withPct == len(parts) && math.Abs(sum-100) > shareTolerance {
		return invalid("percentages add up to %.2f, they must total 100", sum)
	}
	return nil
}

func toContractParticipants(contractID string, parts []ParticipantShare) []model.ContractParticipant {
	out := make([]model.ContractParticipant, 0, len(parts))
	for _, p := range parts {
		out = append(out, model.ContractParticipant{
			ContractID:    contractID,
			ParticipantID: strings.TrimSpace(p.ID),
			Role:          strings.TrimSpace(p.Role),
			Percentage:    p.Percentage,
		})
	}
	return out
}

// ContractService drafts, updates and renders contracts.
type ContractService interface {
	List(ctx context.Context, limit, offset int) (*ListResult[model.Contract], error)
	Get(ctx context.Context, id string) (*model.Contract, error)
	Create(ctx context.Context, in ContractInput) (*model.Contract, error)
	Update(ctx context.Context, id string, p ContractPatch) (*model.Contract, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (*model.ContractStatusView, error)
	// Render returns the contract's template filled with its data.
	Render(ctx context.Context, id string) (string, error)
	ListParticipants(ctx context.Context, contractID string) ([]model.ContractParticipant, error)
	AddParticipant(ctx context.Context, in ContractParticipantInput) ([]model.ContractParticipant, error)
}

type contractService struct {
	contracts  repository.ContractRepository
	works      repository.WorkRepository
	templates  repository.TemplateRepository
	signatures repository.SignatureRepository
	now        func() time.Time
}

func NewContractService(
	contracts repository.ContractRepository,
	works repository.WorkRepository,
	templates repository.TemplateRepository,
	signatures repository.SignatureRepository,
) ContractService {
	return &contractService{
		contracts:  contracts,
		works:      works,
		templates:  templates,
		signatures: signatures,
		now:        time.Now,
	}
}

func (s *contractService) List(ctx context.Context, limit, offset int) (*ListResult[model.Contract], error) {
	limit, offset = normalizePage(limit, offset, 20, 200)
	res, err := s.contracts.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Contract]{Items: res.Items, Total: res.Total}, nil
}

func (s *contractService) Get(ctx context.Context, id string) (*model.Contract, error) {
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "contract")
	}
	return c, nil
}

func (s *contractService) Create(ctx context.Context, in ContractInput) (*model.Contract, error) {
	if strings.TrimSpace(in.WorkID) == "" || strings.TrimSpace(in.TemplateID) == "" {
		return nil, invalid("work_id and template_id are required")
	}
	if err := ValidateShares(in.Participants); err != nil {
		return nil, err
	}
	status := orDefault(in.Status, model.ContractDraft)
	if !IsContractStatus(status) {
		return nil, invalid("unknown status %q", status)
	}
	if in.PublisherPercentage != nil && (*in.PublisherPercentage < 0 || *in.PublisherPercentage > 100) {
		return nil, invalid("publisher_percentage must be between 0 and 100")
	}
	if _, err := s.works.FindByID(ctx, in.WorkID); err != nil {
		if isNoRows(err) {
			return nil, invalid("work %s does not exist", in.WorkID)
		}
		return nil, err
	}
	if _, err := s.templates.FindByID(ctx, in.TemplateID); err != nil {
		if isNoRows(err) {
			return nil, invalid("template %s does not exist", in.TemplateID)
		}
		return nil, err
	}

	c := &model.Contract{
		WorkID:              in.WorkID,
		TemplateID:          in.TemplateID,
		Status:              status,
		InternalReference:   trimPtr(in.InternalReference),
		SigningLocation:     trimPtr(in.SigningLocation),
		AdditionalNotes:     trimPtr(in.AdditionalNotes),
		Publisher:           trimPtr(in.Publisher),
		PublisherPercentage: in.PublisherPercentage,
		CoPublishers:        trimPtr(in.CoPublishers),
		PublisherAdmin:      trimPtr(in.PublisherAdmin),
	}
	id, err := s.contracts.CreateWithParticipants(ctx, c, toContractParticipants("", in.Participants))
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *contractService) Update(ctx context.Context, id string, p ContractPatch) (*model.Contract, error) {
	if p.Status == nil && p.Participants == nil {
		return nil, invalid("nothing to update")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var u repository.ContractUpdate
	if p.Status != nil {
		to := strings.TrimSpace(*p.Status)
		if !IsContractStatus(to) {
			return nil, invalid("unknown status %q", to)
		}
		if !CanTransition(current.Status, to) {
			return nil, &DetailError{
				Kind:    ErrInvalidTransition,
				Message: fmt.Sprintf("cannot move contract from %s to %s", current.Status, to),
			}
		}
		if to != current.Status {
			u.Status = &to
		}
	}
	if p.Participants != nil {
		if err := ValidateShares(*p.Participants); err != nil {
			return nil, err
		}
		u.ReplaceParticipants = true
		u.Participants = toContractParticipants(id, *p.Participants)
	}
	if u.Status == nil && !u.ReplaceParticipants {
		return current, nil
	}
	if err := s.contracts.Update(ctx, id, u); err != nil {
		return nil, mapNotFound(err, "contract")
	}
	return s.Get(ctx, id)
}

func (s *contractService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.contracts.Delete(ctx, id), "contract")
}

func (s *contractService) Status(ctx context.Context, id string) (*model.ContractStatusView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sigs, err := s.signatures.ListByContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if sigs == nil {
		sigs = []model.Signature{}
	}
	return &model.ContractStatusView{
		ID:         c.ID,
		Status:     c.Status,
		SignedAt:   c.SignedAt,
		UpdatedAt:  c.UpdatedAt,
		Signatures: sigs,
	}, nil
}

func (s *contractService) Render(ctx context.Context, id string) (string, error) {
	b, err := s.contracts.LoadBundle(ctx, id)
	if err != nil {
		return "", mapNotFound(err, "contract")
	}
	if strings.TrimSpace(b.Template.TemplateHTML) == "" {
		return "", invalid("template has no HTML")
	}
	return contracttpl.Render(b.Template.TemplateHTML, contracttpl.BuildData(*b, s.now())), nil
}

func (s *contractService) ListParticipants(ctx context.Context, contractID string) ([]model.ContractParticipant, error) {
	if strings.TrimSpace(contractID) == "" {
		return nil, invalid("contract_id is required")
	}
	parts, err := s.contracts.ListParticipants(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if parts == nil {
		parts = []model.ContractParticipant{}
	}
	return parts, nil
}

func (s *contractService) AddParticipant(ctx context.Context, in ContractParticipantInput) ([]model.ContractParticipant, error) {
	if strings.TrimSpace(in.ContractID) == "" || strings.TrimSpace(in.ParticipantID) == "" || in.Percentage == nil {
		return nil, invalid("contract_id, participant_id and percentage are required")
	}
	pct := *in.Percentage
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return nil, invalid("percentage must be between 0 and 100")
	}
	ok, err := s.contracts.Exists(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("contract")
	}
	existing, err := s.contracts.ListParticipants(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	sum := pct
	for _, p := range existing {
		if p.ParticipantID == in.ParticipantID {
			return nil, &DetailError{Kind: ErrConflict, Message: "participant already linked to this contract"}
		}
		if p.Percentage != nil {
			sum += *p.Percentage
		}
	}
	if sum > 100+shareTolerance {
		return nil, invalid("percentages add up to %.2f, more than 100", sum)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = defaultParticipantRole
	}
	err = s.contracts.AddParticipant(ctx, model.ContractParticipant{
		ContractID:    in.ContractID,
		ParticipantID: in.ParticipantID,
		Role:          role,
		Percentage:    &pct,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DetailError{Kind: ErrConflict, Message: "participant already linked to this contract"}
		}
		return nil, fmt.Errorf("add contract participant: %w", err)
	}
	return s.ListParticipants(ctx, in.ContractID)
}
