package services

import (
	"context"
	"crypto/tls"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wanderlink/backend/internal/models"
)

// MongoNotificationService writes into the platform's shared
// notifications collection. Reads and read-state live with the
// notifications service, not here.
type MongoNotificationService struct {
	client           *mongo.Client
	db               *mongo.Database
	notificationsCol *mongo.Collection
}

func NewMongoNotificationService(ctx context.Context, mongoURI, dbName string) (*MongoNotificationService, error) {
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
	col := db.Collection("notifications")

	// Best-effort index for the notification feed readers.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})

	return &MongoNotificationService{
		client:           client,
		db:               db,
		notificationsCol: col,
	}, nil
}

func (s *MongoNotificationService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoNotificationService) Notify(ctx context.Context, n *models.Notification) error {
	_, err := s.notificationsCol.InsertOne(ctx, n)
	return err
}
