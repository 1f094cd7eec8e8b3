package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wanderlink/backend/internal/models"
	"github.com/wanderlink/backend/internal/storage"
)

// ProfileService is the in-memory ProfileStore used for local runs and
// tests. With a data directory configured it snapshots to a JSON file
// after every write.
type ProfileService struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile // userID -> profile
	store    *storage.JSONStore
}

func NewProfileService(dataDir string) (*ProfileService, error) {
	s := &ProfileService{profiles: make(map[string]*models.Profile)}
	if dataDir != "" {
		js, err := storage.NewJSONStore(dataDir, "profiles.json")
		if err != nil {
			return nil, err
		}
		s.store = js
		if err := js.Load(&s.profiles); err != nil {
			return nil, err
		}
		if s.profiles == nil {
			s.profiles = make(map[string]*models.Profile)
		}
	}
	return s, nil
}

func (s *ProfileService) Upsert(ctx context.Context, userID string, req *models.UpsertProfileRequest) (*models.Profile, error) {
	if req.TravelStyle != nil && !validTravelStyle(*req.TravelStyle) {
		return nil, ErrInvalidTravelStyle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	prof, exists := s.profiles[userID]
	if !exists {
		prof = &models.Profile{
			UserID:                 userID,
			DestinationPreferences: []string{},
			Interests:              []string{},
			CreatedAt:              now,
		}
		s.profiles[userID] = prof
	}

	if req.DestinationPreferences != nil {
		prof.DestinationPreferences = normalizeList(*req.DestinationPreferences)
	}
	if req.Interests != nil {
		prof.Interests = normalizeList(*req.Interests)
	}
	if req.TravelStyle != nil {
		prof.TravelStyle = *req.TravelStyle
	}
	if req.Bio != nil {
		prof.Bio = *req.Bio
	}
	prof.UpdatedAt = now

	s.persist()

	cp := *prof
	return &cp, nil
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prof, exists := s.profiles[userID]
	if !exists {
		return nil, ErrProfileNotFound
	}
	cp := *prof
	return &cp, nil
}

func (s *ProfileService) ListCandidates(ctx context.Context, exclude []string, limit int64) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	out := make([]*models.Profile, 0)
	for _, prof := range s.profiles {
		if _, skip := excluded[prof.UserID]; skip {
			continue
		}
		cp := *prof
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// persist is called with the write lock held.
func (s *ProfileService) persist() {
	if s.store != nil {
		_ = s.store.Save(s.profiles)
	}
}

// normalizeList trims entries, drops blanks, and dedupes by exact string
// while preserving first-seen order.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func validTravelStyle(style string) bool {
	switch style {
	case models.TravelStyleBudget, models.TravelStyleLuxury, models.TravelStyleAdventure:
		return true
	}
	return false
}
