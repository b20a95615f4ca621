package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names.
const (
	Users        = "users"
	Sessions     = "sessions"
	Clients      = "clients"
	Measurements = "measurements"
	DietPlans    = "dietplans"
	Appointments = "appointments"
	Activities   = "activities"
)

const connectTimeout = 10 * time.Second

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Ping reports whether the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}

// Indexes lists the indexes every collection needs.
func Indexes() map[string][]mongo.IndexModel {
	byOwner := func(keys ...string) mongo.IndexModel {
		d := bson.D{{Key: "user_id", Value: 1}}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d}
	}
	return map[string][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Sessions: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		Clients: {
			byOwner("name"),
			{Keys: bson.D{{Key: "reference_code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "telegram_chat_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		Measurements: {byOwner("client_id", "date")},
		DietPlans:    {byOwner("client_id", "is_active")},
		Appointments: {
			byOwner("date"),
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "reminder_sent", Value: 1}, {Key: "date", Value: 1}}},
		},
		Activities: {byOwner("created_at")},
	}
}

// EnsureIndexes creates the indexes returned by Indexes. Existing indexes
// with the same keys are left alone by the server.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for coll, models := range Indexes() {
		names, err := database.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		zap.L().Info("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
	}
	return nil
}
