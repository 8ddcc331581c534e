// Package mongodb implements repository.UserRepository on MongoDB.
//
// Documents keep the shape of a classic `userDB.users` collection:
//
//	{ _id: ObjectId, username, hash, googleId, secret, createdAt, updatedAt }
//
// Optional fields are omitted when empty, so "secret unset" really is a missing field.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const usersCollection = "users"

// connectTimeout bounds the initial connect + ping so a missing server fails fast.
const connectTimeout = 10 * time.Second

// DB owns a MongoDB client and the users collection.
type DB struct {
	client *mongo.Client
	users  *mongo.Collection
}

// New connects to uri, pings the primary and ensures the users indexes exist.
//
// Example: New(ctx, "mongodb://localhost:27017", "userDB")
func New(ctx context.Context, uri, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging %s: %w", uri, err)
	}

	db := &DB{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: creating indexes: %w", err)
	}

	return db, nil
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// ensureIndexes is idempotent: CreateMany is a no-op for indexes that already exist.
//
// googleId is unique only among documents that have one (partial index), mirroring
// the sqlite schema.
func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"googleId": bson.M{"$gt": ""}}),
		},
	})
	return err
}
