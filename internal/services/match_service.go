package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wanderlink/backend/internal/models"
	"github.com/wanderlink/backend/internal/storage"
)

// MatchService is the in-memory MatchGraph. The mutex plays the role the
// unique pair-key index plays in Mongo: the existence check and insert
// happen under one lock, so opposite-direction races still end with a
// single edge.
type MatchService struct {
	mu       sync.RWMutex
	edges    map[string]*models.MatchEdge // edgeID -> edge
	byPair   map[string]string            // pair key -> edgeID
	profiles ProfileStore
	store    *storage.JSONStore
}

func NewMatchService(profiles ProfileStore, dataDir string) (*MatchService, error) {
	s := &MatchService{
		edges:    make(map[string]*models.MatchEdge),
		byPair:   make(map[string]string),
		profiles: profiles,
	}
	if dataDir != "" {
		js, err := storage.NewJSONStore(dataDir, "matches.json")
		if err != nil {
			return nil, err
		}
		s.store = js
		if err := js.Load(&s.edges); err != nil {
			return nil, err
		}
		if s.edges == nil {
			s.edges = make(map[string]*models.MatchEdge)
		}
		for id, edge := range s.edges {
			s.byPair[models.PairKey(edge.RequesterID, edge.ReceiverID)] = id
		}
	}
	return s, nil
}

func (s *MatchService) FindEdge(ctx context.Context, userA, userB string) (*models.MatchEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edgeID, exists := s.byPair[models.PairKey(userA, userB)]
	if !exists {
		return nil, nil
	}
	cp := *s.edges[edgeID]
	return &cp, nil
}

func (s *MatchService) CreateEdge(ctx context.Context, requesterID, receiverID string) (*models.MatchEdge, error) {
	if requesterID == receiverID {
		return nil, ErrSelfRequest
	}

	// Requests to users who never set up a profile go nowhere.
	if _, err := s.profiles.GetByUserID(ctx, receiverID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.PairKey(requesterID, receiverID)
	if _, exists := s.byPair[key]; exists {
		return nil, ErrMatchExists
	}

	now := time.Now()
	edge := &models.MatchEdge{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.MatchStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.edges[edge.ID] = edge
	s.byPair[key] = edge.ID
	s.persist()

	cp := *edge
	return &cp, nil
}

func (s *MatchService) SetStatus(ctx context.Context, edgeID, actingUserID, status string) (*models.MatchEdge, error) {
	if status != models.MatchStatusAccepted && status != models.MatchStatusRejected {
		return nil, fmt.Errorf("unsupported match status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edge, exists := s.edges[edgeID]
	if !exists {
		return nil, ErrMatchNotFound
	}
	if edge.ReceiverID != actingUserID {
		return nil, ErrNotReceiver
	}
	if edge.Status != models.MatchStatusPending {
		return nil, ErrMatchDecided
	}

	now := time.Now()
	edge.Status = status
	edge.UpdatedAt = now
	if status == models.MatchStatusAccepted {
		edge.MatchedAt = &now
	}
	s.persist()

	cp := *edge
	return &cp, nil
}

func (s *MatchService) ListAccepted(ctx context.Context, userID string) ([]*models.MatchEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.MatchEdge, 0)
	for _, edge := range s.edges {
		if edge.Status != models.MatchStatusAccepted {
			continue
		}
		if edge.RequesterID != userID && edge.ReceiverID != userID {
			continue
		}
		cp := *edge
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		am, bm := matchedTime(a), matchedTime(b)
		if !am.Equal(bm) {
			return am.After(bm)
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return out, nil
}

// matchedTime treats an edge with no recorded match time as oldest.
// Snapshots written before the field existed load with a nil MatchedAt.
func matchedTime(e *models.MatchEdge) time.Time {
	if e.MatchedAt == nil {
		return time.Time{}
	}
	return *e.MatchedAt
}

func (s *MatchService) ListIncomingPending(ctx context.Context, userID string) ([]*models.MatchEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.MatchEdge, 0)
	for _, edge := range s.edges {
		if edge.ReceiverID == userID && edge.Status == models.MatchStatusPending {
			cp := *edge
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MatchService) PartnerIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0)
	for _, edge := range s.edges {
		if edge.RequesterID == userID {
			out = append(out, edge.ReceiverID)
		} else if edge.ReceiverID == userID {
			out = append(out, edge.RequesterID)
		}
	}
	return out, nil
}

// persist is called with the write lock held.
func (s *MatchService) persist() {
	if s.store != nil {
		_ = s.store.Save(s.edges)
	}
}
