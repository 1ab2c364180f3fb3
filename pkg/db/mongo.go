package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"press-transcripts/pkg/domain"
)

// MongoClient stores denormalized press-conference snapshots for downstream consumers.
type MongoClient struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

// NewMongoClient creates a snapshot client. Connection problems surface in Connect.
func NewMongoClient(connectionString, databaseName, collectionName string) *MongoClient {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return &MongoClient{}
	}

	database := mongoClient.Database(databaseName)
	return &MongoClient{
		mongoClient: mongoClient,
		database:    database,
		collection:  database.Collection(collectionName),
	}
}

// Connect verifies the connection to MongoDB.
func (c *MongoClient) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (c *MongoClient) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SavePressConference upserts the snapshot of a press conference, keyed by its ID.
func (c *MongoClient) SavePressConference(ctx context.Context, pc *domain.PressConference) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	filter := bson.M{"id": pc.ID}
	update := bson.M{"$set": pc}
	opts := options.Update().SetUpsert(true)

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", pc.ID, err)
	}
	return nil
}

// GetAllSlugs returns the slugs of all stored snapshots as a set.
func (c *MongoClient) GetAllSlugs(ctx context.Context) (map[string]bool, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"slug": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query slugs: %w", err)
	}
	defer cursor.Close(ctx)

	slugs := make(map[string]bool)
	for cursor.Next(ctx) {
		var result struct {
			Slug string `bson:"slug"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue
		}
		if result.Slug != "" {
			slugs[result.Slug] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return slugs, nil
}
