package repository

import (
	"context"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultActivityLimit = 50

type ActivityFilter struct {
	ClientID *primitive.ObjectID
	Limit    int64
}

type ActivityRepository interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, userID primitive.ObjectID, f ActivityFilter) ([]models.Activity, error)
	DeleteActivity(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteClientActivities(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error)
}

type MongoActivityRepo struct {
	coll *mongo.Collection
}

func NewMongoActivityRepo(database *mongo.Database) *MongoActivityRepo {
	return &MongoActivityRepo{coll: database.Collection(db.Activities)}
}

func (r *MongoActivityRepo) CreateActivity(ctx context.Context, a *models.Activity) error {
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	id, err := insert(ctx, r.coll, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// ListActivities returns the newest activities first.
func (r *MongoActivityRepo) ListActivities(ctx context.Context, userID primitive.ObjectID, f ActivityFilter) ([]models.Activity, error) {
	filter := bson.M{"user_id": userID}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	return findAll[models.Activity](ctx, r.coll, filter, opts)
}

func (r *MongoActivityRepo) DeleteActivity(ctx context.Context, userID, id primitive.ObjectID) error {
	return deleteOwned(ctx, r.coll, userID, id)
}

func (r *MongoActivityRepo) DeleteClientActivities(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.coll, userID, clientID)
}
