package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanderlink/backend/internal/models"
)

const notifyTimeout = 5 * time.Second

// MatchRequestService drives the pending → accepted/rejected lifecycle
// on the match graph and emits the notification side effects. The graph
// write is the transaction; notifications are strictly best-effort and
// never change an operation's outcome.
type MatchRequestService struct {
	matches  MatchGraph
	notifier Notifier
	logger   *zap.Logger
}

func NewMatchRequestService(matches MatchGraph, notifier Notifier, logger *zap.Logger) *MatchRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchRequestService{
		matches:  matches,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *MatchRequestService) SendRequest(ctx context.Context, requesterID, receiverID string) (*models.MatchEdge, error) {
	edge, err := s.matches.CreateEdge(ctx, requesterID, receiverID)
	if err != nil {
		return nil, err
	}

	s.notify(&models.Notification{
		ID:        uuid.New().String(),
		UserID:    edge.ReceiverID,
		Type:      models.NotificationMatchRequest,
		Title:     "New buddy request",
		Message:   "Someone wants to travel with you",
		Link:      "/matches/requests",
		CreatedAt: time.Now(),
	})
	return edge, nil
}

func (s *MatchRequestService) Accept(ctx context.Context, actingUserID, edgeID string) (*models.MatchEdge, error) {
	edge, err := s.matches.SetStatus(ctx, edgeID, actingUserID, models.MatchStatusAccepted)
	if err != nil {
		return nil, err
	}

	s.notify(&models.Notification{
		ID:        uuid.New().String(),
		UserID:    edge.RequesterID,
		Type:      models.NotificationMatchAccepted,
		Title:     "Buddy request accepted",
		Message:   "Your travel buddy request was accepted",
		Link:      "/matches",
		CreatedAt: time.Now(),
	})
	return edge, nil
}

// Reject emits no notification; nobody needs to hear about it.
func (s *MatchRequestService) Reject(ctx context.Context, actingUserID, edgeID string) (*models.MatchEdge, error) {
	return s.matches.SetStatus(ctx, edgeID, actingUserID, models.MatchStatusRejected)
}

func (s *MatchRequestService) AcceptedMatches(ctx context.Context, userID string) ([]*models.MatchEdge, error) {
	return s.matches.ListAccepted(ctx, userID)
}

func (s *MatchRequestService) IncomingRequests(ctx context.Context, userID string) ([]*models.MatchEdge, error) {
	return s.matches.ListIncomingPending(ctx, userID)
}

// notify writes fire-and-forget: its own goroutine, its own deadline,
// failures logged and swallowed so the caller's response never waits on
// or fails with the notification sink.
func (s *MatchRequestService) notify(n *models.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("notification write failed",
				zap.String("user_id", n.UserID),
				zap.String("type", n.Type),
				zap.Error(err),
			)
		}
	}()
}
