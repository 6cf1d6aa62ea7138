package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/logger"
	apperrors "sjsage522/estateworker/pkg/errors"
)

const connectTimeout = 10 * time.Second

// MongoStore writes entries to a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStore connects, pings the primary and ensures the lookup index
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.NewStorage("mongo", "connect failed", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, apperrors.NewStorage("mongo", "ping failed", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		now:        time.Now,
	}

	_, err = s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "type", Value: 1},
			{Key: "location", Value: 1},
			{Key: "subLocation", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, apperrors.NewStorage("mongo", "create index failed", err)
	}

	logger.ForStore().Info().
		Str("database", database).
		Str("collection", collection).
		Msg("Connected to MongoDB")
	return s, nil
}

// Insert writes all entries in one InsertMany call
func (s *MongoStore) Insert(ctx context.Context, entries []stats.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stamped := stamp(entries, s.now())
	docs := make([]interface{}, len(stamped))
	for i := range stamped {
		docs[i] = stamped[i]
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return apperrors.NewStorage("mongo", "insert entries failed", err)
	}
	return nil
}

// Latest returns the newest entries of one property type and region
func (s *MongoStore) Latest(ctx context.Context, propertyType, location string, limit int64) ([]stats.Entry, error) {
	filter := bson.D{{Key: "type", Value: propertyType}, {Key: "location", Value: location}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.NewStorage("mongo", "find entries failed", err)
	}
	defer cursor.Close(ctx)

	var entries []stats.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, apperrors.NewStorage("mongo", "decode entries failed", err)
	}
	return entries, nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
