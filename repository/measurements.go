package repository

import (
	"context"
	"time"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MeasurementFilter struct {
	ClientID *primitive.ObjectID
	From     *time.Time
	To       *time.Time
	// Ascending sorts oldest first; the default is newest first.
	Ascending bool
}

type MeasurementRepository interface {
	CreateMeasurement(ctx context.Context, m *models.Measurement) error
	ListMeasurements(ctx context.Context, userID primitive.ObjectID, f MeasurementFilter) ([]models.Measurement, error)
	GetMeasurement(ctx context.Context, userID, id primitive.ObjectID) (*models.Measurement, error)
	UpdateMeasurement(ctx context.Context, m *models.Measurement) error
	DeleteMeasurement(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteClientMeasurements(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error)
}

type MongoMeasurementRepo struct {
	coll *mongo.Collection
}

func NewMongoMeasurementRepo(database *mongo.Database) *MongoMeasurementRepo {
	return &MongoMeasurementRepo{coll: database.Collection(db.Measurements)}
}

func (r *MongoMeasurementRepo) CreateMeasurement(ctx context.Context, m *models.Measurement) error {
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	id, err := insert(ctx, r.coll, m)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (r *MongoMeasurementRepo) ListMeasurements(ctx context.Context, userID primitive.ObjectID, f MeasurementFilter) ([]models.Measurement, error) {
	filter := bson.M{"user_id": userID}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	dateRange(filter, "date", f.From, f.To)

	order := -1
	if f.Ascending {
		order = 1
	}
	return findAll[models.Measurement](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "date", Value: order}}))
}

func (r *MongoMeasurementRepo) GetMeasurement(ctx context.Context, userID, id primitive.ObjectID) (*models.Measurement, error) {
	m := &models.Measurement{}
	if err := findOne(ctx, r.coll, ownedFilter(userID, id), m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MongoMeasurementRepo) UpdateMeasurement(ctx context.Context, m *models.Measurement) error {
	m.UpdatedAt = now()
	return replaceOwned(ctx, r.coll, m.UserID, m.ID, m)
}

func (r *MongoMeasurementRepo) DeleteMeasurement(ctx context.Context, userID, id primitive.ObjectID) error {
	return deleteOwned(ctx, r.coll, userID, id)
}

func (r *MongoMeasurementRepo) DeleteClientMeasurements(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.coll, userID, clientID)
}
