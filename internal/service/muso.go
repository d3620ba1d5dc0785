package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"backoffice/internal/cache"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/muso"
	"backoffice/internal/repository"
)

const (
	defaultCreditsLimit = 20
	defaultCreditsTTL   = time.Hour
	defaultSyncLimit    = 4
)

// MusoAPI is the subset of the Muso.AI client used here.
type MusoAPI interface {
	GetProfile(ctx context.Context, profileID string) (*muso.Profile, error)
	Credits(ctx context.Context, profileID string, limit, offset int) (json.RawMessage, error)
}

// ProfileSync is the outcome for one linked profile.
type ProfileSync struct {
	ArtistID   string `json:"artist_id"`
	Status     string `json:"status"`
	Popularity *int   `json:"popularity,omitempty"`
	Error      string `json:"error,omitempty"`
}

type MusoSyncResult struct {
	Total   int           `json:"total"`
	Synced  int           `json:"synced"`
	Failed  int           `json:"failed"`
	Results []ProfileSync `json:"results"`
}

type MusoConfig struct {
	CreditsTTL time.Duration
	Concurrent int
}

// MusoService proxies Muso.AI credits and keeps linked profiles fresh.
type MusoService interface {
	// Credits returns the raw credits page, served from cache when possible.
	Credits(ctx context.Context, profileID string, limit, offset int) (json.RawMessage, error)
	Link(ctx context.Context, artistID, profileID string) (*model.MusoProfile, error)
	// Sync refreshes every linked profile. Failures are reported per profile.
	Sync(ctx context.Context) (*MusoSyncResult, error)
}

type musoService struct {
	api   MusoAPI
	repo  repository.MusoRepository
	cache cache.Cache
	cfg   MusoConfig
	log   *logger.Logger
}

func NewMusoService(api MusoAPI, repo repository.MusoRepository, c cache.Cache, cfg MusoConfig, log *logger.Logger) MusoService {
	if log == nil {
		log = logger.Nop()
	}
	if c == nil {
		c = cache.NewMemory()
	}
	if cfg.CreditsTTL <= 0 {
		cfg.CreditsTTL = defaultCreditsTTL
	}
	if cfg.Concurrent <= 0 {
		cfg.Concurrent = defaultSyncLimit
	}
	return &musoService{api: api, repo: repo, cache: c, cfg: cfg, log: log.With("component", "muso")}
}

func creditsKey(profileID string, limit, offset int) string {
	return "muso:credits:" + profileID + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

func (s *musoService) Credits(ctx context.Context, profileID string, limit, offset int) (json.RawMessage, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, invalid("profile_id is required")
	}
	if limit <= 0 {
		limit = defaultCreditsLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := creditsKey(profileID, limit, offset)
	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("credits cache read failed", "key", key, "error", err)
	} else if ok {
		return b, nil
	}

	raw, err := s.api.Credits(ctx, profileID, limit, offset)
	if err != nil {
		return nil, musoError(err)
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CreditsTTL); err != nil {
		s.log.Warn("credits cache write failed", "key", key, "error", err)
	}
	return raw, nil
}

func musoError(err error) error {
	if errors.Is(err, muso.ErrNotConfigured) {
		return &DetailError{Kind: ErrConfig, Message: "MUSO_AI_API_KEY is not configured"}
	}
	var se *muso.StatusError
	if errors.As(err, &se) {
		return &DetailError{Kind: ErrUpstream, Code: "MUSO_" + strconv.Itoa(se.Status), Message: se.Error()}
	}
	return upstream("muso.ai request failed: %v", err)
}

func (s *musoService) Link(ctx context.Context, artistID, profileID string) (*model.MusoProfile, error) {
	artistID, profileID = strings.TrimSpace(artistID), strings.TrimSpace(profileID)
	if artistID == "" || profileID == "" {
		return nil, invalid("artist_id and muso_profile_id are required")
	}
	p, err := s.repo.Link(ctx, artistID, profileID)
	if err != nil {
		return nil, fmt.Errorf("link muso profile: %w", err)
	}
	return p, nil
}

func (s *musoService) Sync(ctx context.Context) (*MusoSyncResult, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list muso profiles: %w", err)
	}

	res := &MusoSyncResult{Total: len(profiles), Results: make([]ProfileSync, len(profiles))}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrent)
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			out := s.syncOne(gctx, p)
			mu.Lock()
			res.Results[i] = out
			if out.Error == "" {
				res.Synced++
			} else {
				res.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	s.log.Info("muso profiles synced", "total", res.Total, "synced", res.Synced, "failed", res.Failed)
	return res, nil
}

func (s *musoService) syncOne(ctx context.Context, p model.MusoProfile) ProfileSync {
	out := ProfileSync{ArtistID: p.ArtistID}
	prof, err := s.api.GetProfile(ctx, p.MusoProfileID)
	if err != nil {
		var se *muso.StatusError
		if errors.As(err, &se) {
			out.Status = strconv.Itoa(se.Status)
		} else {
			out.Status = "error"
		}
		out.Error = err.Error()
		s.log.Warn("muso profile fetch failed", "artist_id", p.ArtistID, "profile_id", p.MusoProfileID, "error", err)
		return out
	}
	pop := prof.Popularity
	if err := s.repo.SaveProfileData(ctx, p.ArtistID, &pop, prof.Data); err != nil {
		out.Status = "error"
		out.Error = err.Error()
		return out
	}
	out.Status = "ok"
	out.Popularity = &pop
	return out
}
