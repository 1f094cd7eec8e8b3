package services

import (
	"context"
	"sync"

	"github.com/wanderlink/backend/internal/models"
)

// NotificationService is the in-memory Notifier for local runs and
// tests. It just records what would have been enqueued.
type NotificationService struct {
	mu            sync.RWMutex
	notifications []*models.Notification
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

// ListForUser returns recorded notifications for userID, oldest first.
func (s *NotificationService) ListForUser(userID string) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}
