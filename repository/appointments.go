package repository

import (
	"context"
	"fmt"
	"time"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxAppointmentMinutes bounds how far back an overlapping appointment can start.
const MaxAppointmentMinutes = 480

type AppointmentFilter struct {
	ClientID *primitive.ObjectID
	Status   string
	From     *time.Time
	To       *time.Time
	Limit    int64
}

type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	ListAppointments(ctx context.Context, userID primitive.ObjectID, f AppointmentFilter) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, userID, id primitive.ObjectID) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteClientAppointments(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error)

	// Overlapping returns the coach's scheduled appointments intersecting
	// [start, end), ignoring exclude.
	Overlapping(ctx context.Context, userID primitive.ObjectID, start, end time.Time, exclude primitive.ObjectID) ([]models.Appointment, error)
	NextAppointment(ctx context.Context, userID, clientID primitive.ObjectID, after time.Time) (*models.Appointment, error)
	// DueForReminder returns scheduled appointments of all coaches starting in
	// [from, to) whose reminder has not been sent.
	DueForReminder(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) error
}

type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAppointmentRepo(database *mongo.Database) *MongoAppointmentRepo {
	return &MongoAppointmentRepo{coll: database.Collection(db.Appointments)}
}

func (r *MongoAppointmentRepo) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	id, err := insert(ctx, r.coll, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *MongoAppointmentRepo) ListAppointments(ctx context.Context, userID primitive.ObjectID, f AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{"user_id": userID}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	dateRange(filter, "date", f.From, f.To)

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return findAll[models.Appointment](ctx, r.coll, filter, opts)
}

func (r *MongoAppointmentRepo) GetAppointment(ctx context.Context, userID, id primitive.ObjectID) (*models.Appointment, error) {
	a := &models.Appointment{}
	if err := findOne(ctx, r.coll, ownedFilter(userID, id), a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *MongoAppointmentRepo) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	a.UpdatedAt = now()
	return replaceOwned(ctx, r.coll, a.UserID, a.ID, a)
}

func (r *MongoAppointmentRepo) DeleteAppointment(ctx context.Context, userID, id primitive.ObjectID) error {
	return deleteOwned(ctx, r.coll, userID, id)
}

func (r *MongoAppointmentRepo) DeleteClientAppointments(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.coll, userID, clientID)
}

func (r *MongoAppointmentRepo) Overlapping(ctx context.Context, userID primitive.ObjectID, start, end time.Time, exclude primitive.ObjectID) ([]models.Appointment, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  models.StatusScheduled,
		"date": bson.M{
			"$gt": start.Add(-MaxAppointmentMinutes * time.Minute),
			"$lt": end,
		},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	candidates, err := findAll[models.Appointment](ctx, r.coll, filter)
	if err != nil {
		return nil, err
	}

	out := candidates[:0]
	for _, a := range candidates {
		if a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MongoAppointmentRepo) NextAppointment(ctx context.Context, userID, clientID primitive.ObjectID, after time.Time) (*models.Appointment, error) {
	a := &models.Appointment{}
	filter := bson.M{
		"user_id":   userID,
		"client_id": clientID,
		"status":    models.StatusScheduled,
		"date":      bson.M{"$gte": after},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: 1}})
	if err := findOne(ctx, r.coll, filter, a, opts); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *MongoAppointmentRepo) DueForReminder(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	filter := bson.M{
		"status":        models.StatusScheduled,
		"reminder_sent": false,
		"date":          bson.M{"$gte": from, "$lt": to},
	}
	return findAll[models.Appointment](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (r *MongoAppointmentRepo) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminder_sent": true, "updated_at": now()}})
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
