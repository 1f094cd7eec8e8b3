package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlink/backend/internal/models"
)

type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, n *models.Notification) error {
	return errors.New("sink unreachable")
}

func TestLifecycle_EndToEnd(t *testing.T) {
	profiles, graph := newTestStores(t)
	ctx := context.Background()

	seedProfile(t, profiles, "alice", []string{"Goa"}, []string{"food"})
	seedProfile(t, profiles, "bob", []string{"Goa"}, []string{"hiking"})

	notifier := NewNotificationService()
	svc := NewMatchRequestService(graph, notifier, nil)

	edge, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, edge.Status)

	require.Eventually(t, func() bool {
		return len(notifier.ListForUser("bob")) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.NotificationMatchRequest, notifier.ListForUser("bob")[0].Type)

	accepted, err := svc.Accept(ctx, "bob", edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.MatchedAt)

	// The requester hears about the acceptance.
	require.Eventually(t, func() bool {
		return len(notifier.ListForUser("alice")) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.NotificationMatchAccepted, notifier.ListForUser("alice")[0].Type)

	// Both sides now list the same match.
	mine, err := svc.AcceptedMatches(ctx, "alice")
	require.NoError(t, err)
	theirs, err := svc.AcceptedMatches(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, theirs, 1)
	assert.Equal(t, mine[0].ID, theirs[0].ID)
}

func TestSendRequest_NotifierFailureIsSwallowed(t *testing.T) {
	profiles, graph := newTestStores(t)
	ctx := context.Background()

	seedProfile(t, profiles, "alice", nil, nil)
	seedProfile(t, profiles, "bob", nil, nil)

	svc := NewMatchRequestService(graph, failingNotifier{}, nil)

	edge, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, edge.Status)

	// The edge is durable even though the notification never landed.
	found, err := graph.FindEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestAccept_NotifierFailureIsSwallowed(t *testing.T) {
	profiles, graph := newTestStores(t)
	ctx := context.Background()

	seedProfile(t, profiles, "alice", nil, nil)
	seedProfile(t, profiles, "bob", nil, nil)

	svc := NewMatchRequestService(graph, failingNotifier{}, nil)

	edge, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	accepted, err := svc.Accept(ctx, "bob", edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, accepted.Status)
}

func TestReject_NoNotification(t *testing.T) {
	profiles, graph := newTestStores(t)
	ctx := context.Background()

	seedProfile(t, profiles, "alice", nil, nil)
	seedProfile(t, profiles, "bob", nil, nil)

	notifier := NewNotificationService()
	svc := NewMatchRequestService(graph, notifier, nil)

	edge, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// Wait for the request notification so the later assertion is not
	// racing the send side effect.
	require.Eventually(t, func() bool {
		return len(notifier.ListForUser("bob")) == 1
	}, time.Second, 10*time.Millisecond)

	rejected, err := svc.Reject(ctx, "bob", edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusRejected, rejected.Status)
	assert.Nil(t, rejected.MatchedAt)

	assert.Empty(t, notifier.ListForUser("alice"))
}

func TestDecisions_PassThroughErrors(t *testing.T) {
	profiles, graph := newTestStores(t)
	ctx := context.Background()

	seedProfile(t, profiles, "alice", nil, nil)
	seedProfile(t, profiles, "bob", nil, nil)

	svc := NewMatchRequestService(graph, NewNotificationService(), nil)

	edge, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, "alice", edge.ID)
	assert.ErrorIs(t, err, ErrNotReceiver)

	_, err = svc.Reject(ctx, "bob", "no-such-edge")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = svc.SendRequest(ctx, "bob", "alice")
	assert.ErrorIs(t, err, ErrMatchExists)
}
