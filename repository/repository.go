// Package repository persists the coaching domain in MongoDB. Every
// coach-owned document carries a user_id and every read or write of such a
// document is scoped by it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func ownedFilter(userID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}

func findOne(ctx context.Context, coll *mongo.Collection, filter any, out any, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) (primitive.ObjectID, error) {
	res, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, ErrDuplicate
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func replaceOwned(ctx context.Context, coll *mongo.Collection, userID, id primitive.ObjectID, doc any) error {
	res, err := coll.ReplaceOne(ctx, ownedFilter(userID, id), doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("replace in %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOwned(ctx context.Context, coll *mongo.Collection, userID, id primitive.ObjectID) error {
	res, err := coll.DeleteOne(ctx, ownedFilter(userID, id))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByClient(ctx context.Context, coll *mongo.Collection, userID, clientID primitive.ObjectID) (int64, error) {
	res, err := coll.DeleteMany(ctx, bson.M{"user_id": userID, "client_id": clientID})
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	return res.DeletedCount, nil
}

// dateRange adds a $gte/$lt range on field when either bound is set.
func dateRange(filter bson.M, field string, from, to *time.Time) {
	if from == nil && to == nil {
		return
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lt"] = *to
	}
	filter[field] = r
}

// Store groups the Mongo repositories of one database.
type Store struct {
	Users        *MongoUserRepo
	Sessions     *MongoSessionRepo
	Clients      *MongoClientRepo
	Measurements *MongoMeasurementRepo
	DietPlans    *MongoDietPlanRepo
	Appointments *MongoAppointmentRepo
	Activities   *MongoActivityRepo
}

func NewStore(database *mongo.Database) *Store {
	return &Store{
		Users:        NewMongoUserRepo(database),
		Sessions:     NewMongoSessionRepo(database),
		Clients:      NewMongoClientRepo(database),
		Measurements: NewMongoMeasurementRepo(database),
		DietPlans:    NewMongoDietPlanRepo(database),
		Appointments: NewMongoAppointmentRepo(database),
		Activities:   NewMongoActivityRepo(database),
	}
}
