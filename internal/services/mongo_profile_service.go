package services

import (
	"context"
	"crypto/tls"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wanderlink/backend/internal/models"
)

type MongoProfileService struct {
	client      *mongo.Client
	db          *mongo.Database
	profilesCol *mongo.Collection
}

func NewMongoProfileService(ctx context.Context, mongoURI, dbName string) (*MongoProfileService, error) {
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
	col := db.Collection("profiles")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoProfileService{
		client:      client,
		db:          db,
		profilesCol: col,
	}, nil
}

func (s *MongoProfileService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileService) Upsert(ctx context.Context, userID string, req *models.UpsertProfileRequest) (*models.Profile, error) {
	if req.TravelStyle != nil && !validTravelStyle(*req.TravelStyle) {
		return nil, ErrInvalidTravelStyle
	}

	now := time.Now()

	set := bson.M{
		"updated_at": now,
	}
	if req.DestinationPreferences != nil {
		set["destination_preferences"] = normalizeList(*req.DestinationPreferences)
	}
	if req.Interests != nil {
		set["interests"] = normalizeList(*req.Interests)
	}
	if req.TravelStyle != nil {
		set["travel_style"] = *req.TravelStyle
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}

	// IMPORTANT: MongoDB forbids updating the same path in both $set and
	// $setOnInsert, so the empty-list defaults only go on insert when the
	// caller is NOT supplying that list.
	setOnInsert := bson.M{
		"user_id":    userID,
		"created_at": now,
	}
	if req.DestinationPreferences == nil {
		setOnInsert["destination_preferences"] = []string{}
	}
	if req.Interests == nil {
		setOnInsert["interests"] = []string{}
	}

	_, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof); err != nil {
		return nil, err
	}
	return &prof, nil
}

func (s *MongoProfileService) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}

func (s *MongoProfileService) ListCandidates(ctx context.Context, exclude []string, limit int64) ([]*models.Profile, error) {
	if exclude == nil {
		exclude = []string{}
	}

	cur, err := s.profilesCol.Find(
		ctx,
		bson.M{"user_id": bson.M{"$nin": exclude}},
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Profile, 0)
	for cur.Next(ctx) {
		var prof models.Profile
		if err := cur.Decode(&prof); err != nil {
			return nil, err
		}
		out = append(out, &prof)
	}
	return out, cur.Err()
}
