package models

import "time"

// Notification types emitted by the match lifecycle.
const (
	NotificationMatchRequest  = "match_request"
	NotificationMatchAccepted = "match_accepted"
)

// Notification is written fire-and-forget into the platform's shared
// notifications collection. This subsystem only produces them.
type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Type      string    `json:"type" bson:"type"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Link      string    `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
