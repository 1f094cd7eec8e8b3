package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/wanderlink/backend/internal/models"
)

const (
	// DefaultSuggestionPool bounds how many candidate profiles are loaded
	// for scoring. A cost cap, not a completeness guarantee.
	DefaultSuggestionPool = 500

	DefaultSuggestionLimit = 20
	MaxSuggestionLimit     = 100
)

// RankedProfile is a candidate profile with its compatibility score.
type RankedProfile struct {
	Profile models.PublicProfile `json:"profile"`
	Score   int                  `json:"score"`
}

// SuggestionService ranks buddy candidates by travel-preference overlap.
// Read-only: it never mutates the stores it is given.
type SuggestionService struct {
	profiles ProfileStore
	matches  MatchGraph
	poolSize int64
}

func NewSuggestionService(profiles ProfileStore, matches MatchGraph, poolSize int64) *SuggestionService {
	if poolSize <= 0 {
		poolSize = DefaultSuggestionPool
	}
	return &SuggestionService{
		profiles: profiles,
		matches:  matches,
		poolSize: poolSize,
	}
}

// Suggest returns up to limit candidates for userID, best match first.
// Shared destinations count double against shared interests. A caller
// without a profile still gets suggestions; every candidate just scores
// zero overlap.
func (s *SuggestionService) Suggest(ctx context.Context, userID string, limit int) ([]RankedProfile, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}

	var destinations, interests map[string]struct{}
	if caller, err := s.profiles.GetByUserID(ctx, userID); err == nil {
		destinations = foldSet(caller.DestinationPreferences)
		interests = foldSet(caller.Interests)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	// Anyone already on an edge with the caller stays out, whatever the
	// edge's status. Rejected pairs are never re-suggested.
	partners, err := s.matches.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := append([]string{userID}, partners...)

	candidates, err := s.profiles.ListCandidates(ctx, exclude, s.poolSize)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedProfile, 0, len(candidates))
	for _, cand := range candidates {
		score := 2*overlap(destinations, cand.DestinationPreferences) + overlap(interests, cand.Interests)
		ranked = append(ranked, RankedProfile{Profile: cand.Public(), Score: score})
	}

	// Candidates arrive most-recently-updated first, so a stable sort on
	// score keeps that as the tiebreak.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// foldSet lowercases and trims entries for case-insensitive matching.
func foldSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

func overlap(set map[string]struct{}, candidates []string) int {
	if len(set) == 0 {
		return 0
	}
	n := 0
	seen := make(map[string]struct{}, len(candidates))
	for _, v := range candidates {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}
