package services

import (
	"context"
	"errors"

	"github.com/wanderlink/backend/internal/models"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidTravelStyle = errors.New("invalid travel style")
	ErrSelfRequest        = errors.New("cannot send a match request to yourself")
	ErrMatchNotFound      = errors.New("match request not found")
	ErrMatchExists        = errors.New("a request already exists between these users")
	ErrMatchDecided       = errors.New("match request has already been decided")
	ErrNotReceiver        = errors.New("only the receiver may decide this request")
)

// ProfileStore holds one travel profile per user.
type ProfileStore interface {
	Upsert(ctx context.Context, userID string, req *models.UpsertProfileRequest) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	// ListCandidates returns up to limit profiles whose owner is not in
	// exclude, most recently updated first.
	ListCandidates(ctx context.Context, exclude []string, limit int64) ([]*models.Profile, error)
}

// MatchGraph holds the buddy-request edges between user pairs.
type MatchGraph interface {
	// FindEdge returns the edge between the two users regardless of
	// which side is the requester, or nil when none exists.
	FindEdge(ctx context.Context, userA, userB string) (*models.MatchEdge, error)
	CreateEdge(ctx context.Context, requesterID, receiverID string) (*models.MatchEdge, error)
	SetStatus(ctx context.Context, edgeID, actingUserID, status string) (*models.MatchEdge, error)
	ListAccepted(ctx context.Context, userID string) ([]*models.MatchEdge, error)
	ListIncomingPending(ctx context.Context, userID string) ([]*models.MatchEdge, error)
	// PartnerIDs returns the other-party IDs of every edge involving
	// userID, whatever the status. Rejected pairs stay in this set.
	PartnerIDs(ctx context.Context, userID string) ([]string, error)
}

// Notifier is the write side of the platform's notification sink.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}
