package services

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wanderlink/backend/internal/models"
)

type MongoMatchService struct {
	client     *mongo.Client
	db         *mongo.Database
	matchesCol *mongo.Collection
	profiles   ProfileStore
}

type mongoMatchDoc struct {
	ID          string     `bson:"_id"`
	PairKey     string     `bson:"pair_key"`
	RequesterID string     `bson:"requester_id"`
	ReceiverID  string     `bson:"receiver_id"`
	Status      string     `bson:"status"`
	MatchedAt   *time.Time `bson:"matched_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func (d *mongoMatchDoc) toModel() *models.MatchEdge {
	return &models.MatchEdge{
		ID:          d.ID,
		RequesterID: d.RequesterID,
		ReceiverID:  d.ReceiverID,
		Status:      d.Status,
		MatchedAt:   d.MatchedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func NewMongoMatchService(ctx context.Context, mongoURI, dbName string, profiles ProfileStore) (*MongoMatchService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	matches := db.Collection("matches")

	svc := &MongoMatchService{
		client:     client,
		db:         db,
		matchesCol: matches,
		profiles:   profiles,
	}

	// Best-effort indexes. The unique pair_key index is the authority for
	// the one-edge-per-pair invariant; insert races surface as duplicate
	// key errors, never as duplicate edges.
	_, _ = matches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
		{Keys: bson.D{{Key: "matched_at", Value: -1}}},
	})

	return svc, nil
}

func (s *MongoMatchService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoMatchService) FindEdge(ctx context.Context, userA, userB string) (*models.MatchEdge, error) {
	var doc mongoMatchDoc
	err := s.matchesCol.FindOne(ctx, bson.M{"pair_key": models.PairKey(userA, userB)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoMatchService) CreateEdge(ctx context.Context, requesterID, receiverID string) (*models.MatchEdge, error) {
	if requesterID == receiverID {
		return nil, ErrSelfRequest
	}

	// Requests to users who never set up a profile go nowhere.
	if _, err := s.profiles.GetByUserID(ctx, receiverID); err != nil {
		return nil, err
	}

	// Pre-check both directions for a friendlier error on the common
	// path; the unique index still decides races.
	if existing, err := s.FindEdge(ctx, requesterID, receiverID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrMatchExists
	}

	now := time.Now()
	doc := &mongoMatchDoc{
		ID:          uuid.New().String(),
		PairKey:     models.PairKey(requesterID, receiverID),
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.MatchStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.matchesCol.InsertOne(ctx, doc); err != nil {
		// Lost an opposite-direction race.
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrMatchExists
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoMatchService) SetStatus(ctx context.Context, edgeID, actingUserID, status string) (*models.MatchEdge, error) {
	var current mongoMatchDoc
	if err := s.matchesCol.FindOne(ctx, bson.M{"_id": edgeID}).Decode(&current); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if current.ReceiverID != actingUserID {
		return nil, ErrNotReceiver
	}

	now := time.Now()
	set := bson.M{
		"status":     status,
		"updated_at": now,
	}
	if status == models.MatchStatusAccepted {
		set["matched_at"] = now
	}

	// The pending guard makes this a single conditional write: exactly
	// one concurrent decision wins, the rest match zero documents.
	var updated mongoMatchDoc
	err := s.matchesCol.FindOneAndUpdate(
		ctx,
		bson.M{"_id": edgeID, "receiver_id": actingUserID, "status": models.MatchStatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMatchDecided
		}
		return nil, err
	}
	return updated.toModel(), nil
}

func (s *MongoMatchService) ListAccepted(ctx context.Context, userID string) ([]*models.MatchEdge, error) {
	filter := bson.M{
		"status": models.MatchStatusAccepted,
		"$or": []bson.M{
			{"requester_id": userID},
			{"receiver_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "matched_at", Value: -1},
		{Key: "updated_at", Value: -1},
	})
	return s.findEdges(ctx, filter, opts)
}

func (s *MongoMatchService) ListIncomingPending(ctx context.Context, userID string) ([]*models.MatchEdge, error) {
	filter := bson.M{
		"receiver_id": userID,
		"status":      models.MatchStatusPending,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findEdges(ctx, filter, opts)
}

func (s *MongoMatchService) PartnerIDs(ctx context.Context, userID string) ([]string, error) {
	edges, err := s.findEdges(ctx, bson.M{
		"$or": []bson.M{
			{"requester_id": userID},
			{"receiver_id": userID},
		},
	}, options.Find())
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(edges))
	for _, edge := range edges {
		out = append(out, edge.OtherSide(userID))
	}
	return out, nil
}

func (s *MongoMatchService) findEdges(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.MatchEdge, error) {
	cur, err := s.matchesCol.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.MatchEdge, 0)
	for cur.Next(ctx) {
		var doc mongoMatchDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	return out, cur.Err()
}
