package models

import (
	"strings"
	"time"
)

// Match edge statuses. An edge is created pending and moves exactly once
// to accepted or rejected; there is no path back.
const (
	MatchStatusPending  = "pending"
	MatchStatusAccepted = "accepted"
	MatchStatusRejected = "rejected"
)

// MatchEdge is one buddy relationship between two users. It is stored
// directionally (who asked whom) but represents a single undirected
// relationship: at most one edge exists per unordered pair.
type MatchEdge struct {
	ID          string     `json:"id" bson:"_id"`
	RequesterID string     `json:"requester_id" bson:"requester_id"`
	ReceiverID  string     `json:"receiver_id" bson:"receiver_id"`
	Status      string     `json:"status" bson:"status"`
	MatchedAt   *time.Time `json:"matched_at,omitempty" bson:"matched_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// OtherSide returns the counterpart of userID on this edge.
func (e *MatchEdge) OtherSide(userID string) string {
	if e.RequesterID == userID {
		return e.ReceiverID
	}
	return e.RequesterID
}

// PairKey builds the canonical order-independent key for a user pair.
// The unique index on this key is what enforces one-edge-per-pair even
// when both directions insert at the same time.
func PairKey(a, b string) string {
	if strings.Compare(a, b) < 0 {
		return a + "|" + b
	}
	return b + "|" + a
}

// SendMatchRequest is the body for creating a match request.
type SendMatchRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}
