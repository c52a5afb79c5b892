// Package database owns the MongoDB connection.
//
// Mongo is the single authoritative store; every cross-request race in the
// order flow is resolved by conditional updates against it, so no other
// synchronization point exists.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vendora/vendora/config"
)

var (
	client *mongo.Client
	db     *mongo.Database
)

// Connect opens the Mongo client, verifies the connection, and ensures the
// indexes the repositories rely on.
func Connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(config.MongoURI()).
		SetMaxPoolSize(50).
		SetConnectTimeout(10 * time.Second)

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}

	client = c
	db = c.Database(config.MongoDB())

	return ensureIndexes(ctx)
}

// DB returns the application database handle. Connect must have been called.
func DB() *mongo.Database {
	return db
}

// Disconnect closes the Mongo client.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{"users", mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{"carts", mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique}},
		{"orders", mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{"products", mongo.IndexModel{Keys: bson.D{{Key: "shopkeeperId", Value: 1}}}},
		{"products", mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}}}},
		{"notifications", mongo.IndexModel{Keys: bson.D{{Key: "targetRole", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{"notifications", mongo.IndexModel{Keys: bson.D{{Key: "targetRole", Value: 1}, {Key: "isRead", Value: 1}}}},
		{"tokens", mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("database: index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
