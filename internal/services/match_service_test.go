package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlink/backend/internal/models"
	"github.com/wanderlink/backend/internal/storage"
)

func newTestStores(t *testing.T, users ...string) (*ProfileService, *MatchService) {
	t.Helper()

	profiles, err := NewProfileService("")
	require.NoError(t, err)

	ctx := context.Background()
	for _, u := range users {
		_, err := profiles.Upsert(ctx, u, &models.UpsertProfileRequest{})
		require.NoError(t, err)
	}

	graph, err := NewMatchService(profiles, "")
	require.NoError(t, err)
	return profiles, graph
}

func TestCreateEdge_SymmetricLookup(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob")
	ctx := context.Background()

	edge, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, edge.Status)
	assert.Equal(t, "alice", edge.RequesterID)
	assert.Equal(t, "bob", edge.ReceiverID)
	assert.Nil(t, edge.MatchedAt)

	forward, err := graph.FindEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	backward, err := graph.FindEdge(ctx, "bob", "alice")
	require.NoError(t, err)

	require.NotNil(t, forward)
	require.NotNil(t, backward)
	assert.Equal(t, edge.ID, forward.ID)
	assert.Equal(t, edge.ID, backward.ID)
}

func TestCreateEdge_SelfRequest(t *testing.T) {
	_, graph := newTestStores(t, "alice")
	_, err := graph.CreateEdge(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestCreateEdge_ReceiverWithoutProfile(t *testing.T) {
	_, graph := newTestStores(t, "alice")
	_, err := graph.CreateEdge(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateEdge_DuplicateEitherDirection(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob")
	ctx := context.Background()

	_, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = graph.CreateEdge(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrMatchExists)

	_, err = graph.CreateEdge(ctx, "bob", "alice")
	assert.ErrorIs(t, err, ErrMatchExists)
}

func TestSetStatus_OnlyReceiverDecides(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob", "carol")
	ctx := context.Background()

	edge, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = graph.SetStatus(ctx, edge.ID, "alice", models.MatchStatusAccepted)
	assert.ErrorIs(t, err, ErrNotReceiver)

	_, err = graph.SetStatus(ctx, edge.ID, "carol", models.MatchStatusRejected)
	assert.ErrorIs(t, err, ErrNotReceiver)

	updated, err := graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, updated.Status)
	require.NotNil(t, updated.MatchedAt)
}

func TestSetStatus_Terminal(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob")
	ctx := context.Background()

	edge, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusRejected)
	require.NoError(t, err)

	_, err = graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusAccepted)
	assert.ErrorIs(t, err, ErrMatchDecided)
	_, err = graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusRejected)
	assert.ErrorIs(t, err, ErrMatchDecided)

	current, err := graph.FindEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusRejected, current.Status)
	assert.Nil(t, current.MatchedAt)
}

func TestSetStatus_UnknownEdge(t *testing.T) {
	_, graph := newTestStores(t, "alice")
	_, err := graph.SetStatus(context.Background(), "no-such-edge", "alice", models.MatchStatusAccepted)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

// A rejected pair stays locked out: there is no edge deletion or reset,
// so neither side can ever re-request.
func TestRejectedPairStaysLocked(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob")
	ctx := context.Background()

	edge, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusRejected)
	require.NoError(t, err)

	_, err = graph.CreateEdge(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrMatchExists)
	_, err = graph.CreateEdge(ctx, "bob", "alice")
	assert.ErrorIs(t, err, ErrMatchExists)
}

func TestConcurrentOppositeRequests(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob")
	ctx := context.Background()

	type result struct {
		edge *models.MatchEdge
		err  error
	}
	results := make(chan result, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		edge, err := graph.CreateEdge(ctx, "alice", "bob")
		results <- result{edge, err}
	}()
	go func() {
		defer wg.Done()
		edge, err := graph.CreateEdge(ctx, "bob", "alice")
		results <- result{edge, err}
	}()
	wg.Wait()
	close(results)

	var wins, conflicts int
	for res := range results {
		if res.err == nil {
			wins++
			assert.Equal(t, models.MatchStatusPending, res.edge.Status)
		} else {
			conflicts++
			assert.ErrorIs(t, res.err, ErrMatchExists)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	partners, err := graph.PartnerIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, partners)
}

func TestConcurrentDecisions_OneWinner(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob")
	ctx := context.Background()

	edge, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusAccepted)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := graph.SetStatus(ctx, edge.ID, "bob", models.MatchStatusRejected)
		errs <- err
	}()
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			conflicts++
			assert.ErrorIs(t, err, ErrMatchDecided)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
}

func TestListAccepted_OrderAndSides(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()

	first, err := graph.CreateEdge(ctx, "bob", "alice")
	require.NoError(t, err)
	second, err := graph.CreateEdge(ctx, "alice", "carol")
	require.NoError(t, err)
	_, err = graph.CreateEdge(ctx, "dave", "alice")
	require.NoError(t, err)

	_, err = graph.SetStatus(ctx, first.ID, "alice", models.MatchStatusAccepted)
	require.NoError(t, err)
	_, err = graph.SetStatus(ctx, second.ID, "carol", models.MatchStatusAccepted)
	require.NoError(t, err)

	accepted, err := graph.ListAccepted(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	// Most recently matched first.
	assert.Equal(t, second.ID, accepted[0].ID)
	assert.Equal(t, first.ID, accepted[1].ID)

	// The counterpart sees the same edge.
	fromCarol, err := graph.ListAccepted(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, fromCarol, 1)
	assert.Equal(t, second.ID, fromCarol[0].ID)
}

// Snapshots written before matched_at existed load accepted edges with a
// nil MatchedAt. Listing must not panic on those; they sort as oldest.
func TestListAccepted_LegacySnapshotWithoutMatchedAt(t *testing.T) {
	dataDir := t.TempDir()
	matched := time.Now().UTC()

	edges := map[string]*models.MatchEdge{
		"legacy": {
			ID:          "legacy",
			RequesterID: "alice",
			ReceiverID:  "bob",
			Status:      models.MatchStatusAccepted,
			CreatedAt:   matched.Add(-2 * time.Hour),
			UpdatedAt:   matched.Add(-time.Hour),
		},
		"recent": {
			ID:          "recent",
			RequesterID: "alice",
			ReceiverID:  "carol",
			Status:      models.MatchStatusAccepted,
			MatchedAt:   &matched,
			CreatedAt:   matched.Add(-time.Hour),
			UpdatedAt:   matched,
		},
	}
	js, err := storage.NewJSONStore(dataDir, "matches.json")
	require.NoError(t, err)
	require.NoError(t, js.Save(edges))

	profiles, err := NewProfileService("")
	require.NoError(t, err)
	graph, err := NewMatchService(profiles, dataDir)
	require.NoError(t, err)

	accepted, err := graph.ListAccepted(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	assert.Equal(t, "recent", accepted[0].ID)
	assert.Equal(t, "legacy", accepted[1].ID)
	assert.Nil(t, accepted[1].MatchedAt)
}

func TestListIncomingPending(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob", "carol")
	ctx := context.Background()

	older, err := graph.CreateEdge(ctx, "bob", "alice")
	require.NoError(t, err)
	newer, err := graph.CreateEdge(ctx, "carol", "alice")
	require.NoError(t, err)

	// Outgoing requests are not incoming for the requester.
	outgoing, err := graph.ListIncomingPending(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, outgoing)

	incoming, err := graph.ListIncomingPending(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	assert.Equal(t, newer.ID, incoming[0].ID)
	assert.Equal(t, older.ID, incoming[1].ID)

	// Decided edges drop out of the incoming list.
	_, err = graph.SetStatus(ctx, newer.ID, "alice", models.MatchStatusRejected)
	require.NoError(t, err)
	incoming, err = graph.ListIncomingPending(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, older.ID, incoming[0].ID)
}

func TestPartnerIDs_AllStatuses(t *testing.T) {
	_, graph := newTestStores(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()

	_, err := graph.CreateEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	acceptedEdge, err := graph.CreateEdge(ctx, "carol", "alice")
	require.NoError(t, err)
	rejectedEdge, err := graph.CreateEdge(ctx, "alice", "dave")
	require.NoError(t, err)

	_, err = graph.SetStatus(ctx, acceptedEdge.ID, "alice", models.MatchStatusAccepted)
	require.NoError(t, err)
	_, err = graph.SetStatus(ctx, rejectedEdge.ID, "dave", models.MatchStatusRejected)
	require.NoError(t, err)

	partners, err := graph.PartnerIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol", "dave"}, partners)
}
