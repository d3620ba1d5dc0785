package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"backoffice/internal/auth"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const (
	defaultGenre   = "Unknown"
	defaultCountry = "US"
)

// ArtistInput is the payload accepted when creating an artist.
type ArtistInput struct {
	Name            string  `json:"name"`
	LegalName       *string `json:"legal_name"`
	Genre           string  `json:"genre"`
	Country         string  `json:"country"`
	Bio             *string `json:"bio"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	SpotifyArtistID *string `json:"spotify_artist_id"`
}

// ArtistService manages the artist roster.
type ArtistService interface {
	List(ctx context.Context, limit, offset int) (*ListResult[model.Artist], error)
	Get(ctx context.Context, id string) (*model.Artist, error)
	Create(ctx context.Context, userID string, in ArtistInput) (*model.Artist, error)
	Update(ctx context.Context, id string, patch map[string]any) (*model.Artist, error)
	Delete(ctx context.Context, id string) error
	// Restore returns the artist named name, creating it when missing.
	// created reports whether a new row was inserted.
	Restore(ctx context.Context, name, userID string) (a *model.Artist, created bool, err error)
	FindOrCreate(ctx context.Context, name string, legalName *string) (*model.Artist, error)
}

type artistService struct {
	repo repository.ArtistRepository
}

func NewArtistService(repo repository.ArtistRepository) ArtistService {
	return &artistService{repo: repo}
}

var artistFields = map[string]fieldKind{
	"name":              kindText,
	"legal_name":        kindNullText,
	"genre":             kindText,
	"country":           kindText,
	"bio":               kindNullText,
	"email":             kindNullText,
	"phone":             kindNullText,
	"spotify_artist_id": kindNullText,
}

func (s *artistService) List(ctx context.Context, limit, offset int) (*ListResult[model.Artist], error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Artist]{Items: res.Items, Total: res.Total}, nil
}

func (s *artistService) Get(ctx context.Context, id string) (*model.Artist, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "artist")
	}
	return a, nil
}

func (s *artistService) Create(ctx context.Context, userID string, in ArtistInput) (*model.Artist, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" && !auth.IsValidEmail(*in.Email) {
		return nil, invalid("invalid email")
	}
	a := &model.Artist{
		Name:            name,
		LegalName:       trimPtr(in.LegalName),
		Genre:           orDefault(in.Genre, defaultGenre),
		Country:         orDefault(in.Country, defaultCountry),
		Bio:             trimPtr(in.Bio),
		Email:           trimPtr(in.Email),
		Phone:           trimPtr(in.Phone),
		SpotifyArtistID: trimPtr(in.SpotifyArtistID),
	}
	if userID != "" {
		a.UserID = &userID
	}
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DetailError{Kind: ErrConflict, Message: fmt.Sprintf("artist %q already exists", name)}
		}
		return nil, fmt.Errorf("create artist: %w", err)
	}
	return created, nil
}

func (s *artistService) Update(ctx context.Context, id string, patch map[string]any) (*model.Artist, error) {
	f, err := buildFields(patch, artistFields)
	if err != nil {
		return nil, err
	}
	if v, ok := f["email"].(string); ok && !auth.IsValidEmail(v) {
		return nil, invalid("invalid email")
	}
	a, err := s.repo.Update(ctx, id, f)
	if err != nil {
		return nil, mapNotFound(err, "artist")
	}
	return a, nil
}

func (s *artistService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.repo.SoftDelete(ctx, id), "artist")
}

func (s *artistService) Restore(ctx context.Context, name, userID string) (*model.Artist, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, invalid("name is required")
	}
	existing, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !isNoRows(err) {
		return nil, false, err
	}
	a, err := s.Create(ctx, userID, ArtistInput{Name: name})
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

func (s *artistService) FindOrCreate(ctx context.Context, name string, legalName *string) (*model.Artist, error) {
	name = strings.TrimSpace(name)
	existing, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !isNoRows(err) {
		return nil, err
	}
	return s.Create(ctx, "", ArtistInput{Name: name, LegalName: legalName})
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

var participantTypes = []string{
	model.ParticipantArtista,
	model.ParticipantProductor,
	model.ParticipantCompositor,
	model.ParticipantManager,
	model.ParticipantLawyer,
}

// ParticipantService manages contract parties.
type ParticipantService interface {
	List(ctx context.Context, limit, offset int) (*ListResult[model.Participant], error)
	Get(ctx context.Context, id string) (*model.Participant, error)
	Create(ctx context.Context, p model.Participant) (*model.Participant, error)
	Update(ctx context.Context, id string, patch map[string]any) (*model.Participant, error)
	Delete(ctx context.Context, id string) error
}

type participantService struct {
	repo repository.ParticipantRepository
}

func NewParticipantService(repo repository.ParticipantRepository) ParticipantService {
	return &participantService{repo: repo}
}

var participantFields = map[string]fieldKind{
	"name":              kindText,
	"email":             kindNullText,
	"type":              kindText,
	"id_number":         kindNullText,
	"address":           kindNullText,
	"country":           kindNullText,
	"phone":             kindNullText,
	"bank_info":         kindJSON,
	"artistic_name":     kindNullText,
	"management_entity": kindNullText,
	"ipi":               kindNullText,

	"auco_verification_id": kindNullText,
}

func (s *participantService) List(ctx context.Context, limit, offset int) (*ListResult[model.Participant], error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Participant]{Items: res.Items, Total: res.Total}, nil
}

func (s *participantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "participant")
	}
	return p, nil
}

func (s *participantService) Create(ctx context.Context, p model.Participant) (*model.Participant, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
	if p.Name == "" || p.Type == "" {
		return nil, invalid("name and type are required")
	}
	if !oneOf(p.Type, participantTypes...) {
		return nil, invalid("type must be one of %s", strings.Join(participantTypes, ", "))
	}
	p.Email = trimPtr(p.Email)
	if p.Email != nil && !auth.IsValidEmail(*p.Email) {
		return nil, invalid("invalid email")
	}
	if p.BankInfo != nil && strings.TrimSpace(string(*p.BankInfo)) == "" {
		p.BankInfo = nil
	}
	created, err := s.repo.Create(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return created, nil
}

func (s *participantService) Update(ctx context.Context, id string, patch map[string]any) (*model.Participant, error) {
	f, err := buildFields(patch, participantFields)
	if err != nil {
		return nil, err
	}
	if t, ok := f["type"].(string); ok {
		t = strings.ToUpper(t)
		if !oneOf(t, participantTypes...) {
			return nil, invalid("type must be one of %s", strings.Join(participantTypes, ", "))
		}
		f["type"] = t
	}
	if v, ok := f["email"].(string); ok && !auth.IsValidEmail(v) {
		return nil, invalid("invalid email")
	}
	p, err := s.repo.Update(ctx, id, f)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, &DetailError{Kind: ErrConflict, Message: "auco_verification_id is already linked to another participant"}
	}
	if err != nil {
		return nil, mapNotFound(err, "participant")
	}
	return p, nil
}

func (s *participantService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.repo.Delete(ctx, id), "participant")
}

var (
	workTypes    = []string{"single", "album", "ep", "mixtape"}
	workStatuses = []string{"planned", "in_progress", "completed", "released", "cancelled"}
)

// WorkService manages musical works.
type WorkService interface {
	List(ctx context.Context, artistID string, limit, offset int) (*ListResult[model.Work], error)
	Get(ctx context.Context, id string) (*model.Work, error)
	Create(ctx context.Context, w model.Work) (*model.Work, error)
	Update(ctx context.Context, id string, patch map[string]any) (*model.Work, error)
	Delete(ctx context.Context, id string) error
}

type workService struct {
	repo repository.WorkRepository
}

func NewWorkService(repo repository.WorkRepository) WorkService {
	return &workService{repo: repo}
}

var workFields = map[string]fieldKind{
	"name":              kindText,
	"artist_id":         kindText,
	"alternative_title": kindNullText,
	"iswc":              kindNullText,
	"isrc":              kindNullText,
	"upc":               kindNullText,
	"type":              kindText,
	"status":            kindText,
	"release_date":      kindTime,
}

func (s *workService) List(ctx context.Context, artistID string, limit, offset int) (*ListResult[model.Work], error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	res, err := s.repo.List(ctx, artistID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Work]{Items: res.Items, Total: res.Total}, nil
}

func (s *workService) Get(ctx context.Context, id string) (*model.Work, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "work")
	}
	return w, nil
}

func (s *workService) Create(ctx context.Context, w model.Work) (*model.Work, error) {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" || strings.TrimSpace(w.ArtistID) == "" {
		return nil, invalid("name and artist_id are required")
	}
	w.Type = orDefault(w.Type, "single")
	w.Status = orDefault(w.Status, "planned")
	if !oneOf(w.Type, workTypes...) {
		return nil, invalid("type must be one of %s", strings.Join(workTypes, ", "))
	}
	if !oneOf(w.Status, workStatuses...) {
		return nil, invalid("status must be one of %s", strings.Join(workStatuses, ", "))
	}
	created, err := s.repo.Create(ctx, &w)
	if err != nil {
		return nil, fmt.Errorf("create work: %w", err)
	}
	return created, nil
}

func (s *workService) Update(ctx context.Context, id string, patch map[string]any) (*model.Work, error) {
	f, err := buildFields(patch, workFields)
	if err != nil {
		return nil, err
	}
	if t, ok := f["type"].(string); ok && !oneOf(t, workTypes...) {
		return nil, invalid("type must be one of %s", strings.Join(workTypes, ", "))
	}
	if st, ok := f["status"].(string); ok && !oneOf(st, workStatuses...) {
		return nil, invalid("status must be one of %s", strings.Join(workStatuses, ", "))
	}
	w, err := s.repo.Update(ctx, id, f)
	if err != nil {
		return nil, mapNotFound(err, "work")
	}
	return w, nil
}

func (s *workService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.repo.Delete(ctx, id), "work")
}

// TemplateService manages contract templates.
type TemplateService interface {
	List(ctx context.Context, limit, offset int) (*ListResult[model.Template], error)
	Get(ctx context.Context, id string) (*model.Template, error)
	Create(ctx context.Context, t model.Template) (*model.Template, error)
	Update(ctx context.Context, id string, patch map[string]any) (*model.Template, error)
	Delete(ctx context.Context, id string) error
	// Seed upserts the bundled default templates by name and returns how many were written.
	Seed(ctx context.Context) (int, error)
}

type templateService struct {
	repo repository.TemplateRepository
	log  *logger.Logger
}

func NewTemplateService(repo repository.TemplateRepository, log *logger.Logger) TemplateService {
	if log == nil {
		log = logger.Nop()
	}
	return &templateService{repo: repo, log: log}
}

var templateFields = map[string]fieldKind{
	"name":          kindText,
	"language":      kindNullText,
	"type":          kindNullText,
	"version":       kindNullText,
	"jurisdiction":  kindNullText,
	"template_html": kindText,
}

func (s *templateService) List(ctx context.Context, limit, offset int) (*ListResult[model.Template], error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Template]{Items: res.Items, Total: res.Total}, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*model.Template, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "template")
	}
	return t, nil
}

func (s *templateService) Create(ctx context.Context, t model.Template) (*model.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || strings.TrimSpace(t.TemplateHTML) == "" {
		return nil, invalid("name and template_html are required")
	}
	created, err := s.repo.Create(ctx, &t)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

func (s *templateService) Update(ctx context.Context, id string, patch map[string]any) (*model.Template, error) {
	f, err := buildFields(patch, templateFields)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Update(ctx, id, f)
	if err != nil {
		return nil, mapNotFound(err, "template")
	}
	return t, nil
}

func (s *templateService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.repo.Delete(ctx, id), "template")
}

//go:embed seed/templates.yaml
var seedTemplates []byte

type seedFile struct {
	Templates []model.Template `yaml:"templates"`
}

// DefaultTemplates decodes the bundled template seeds.
func DefaultTemplates() ([]model.Template, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedTemplates, &f); err != nil {
		return nil, fmt.Errorf("decode template seeds: %w", err)
	}
	return f.Templates, nil
}

func (s *templateService) Seed(ctx context.Context) (int, error) {
	tpls, err := DefaultTemplates()
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range tpls {
		t := tpls[i]
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.TemplateHTML) == "" {
			continue
		}
		if _, err := s.repo.UpsertByName(ctx, &t); err != nil {
			return n, fmt.Errorf("upsert template %q: %w", t.Name, err)
		}
		s.log.Info("template seeded", "name", t.Name)
		n++
	}
	return n, nil
}
