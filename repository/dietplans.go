package repository

import (
	"context"
	"fmt"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DietPlanFilter struct {
	ClientID *primitive.ObjectID
	Active   *bool
}

type DietPlanRepository interface {
	CreateDietPlan(ctx context.Context, p *models.DietPlan) error
	ListDietPlans(ctx context.Context, userID primitive.ObjectID, f DietPlanFilter) ([]models.DietPlan, error)
	GetDietPlan(ctx context.Context, userID, id primitive.ObjectID) (*models.DietPlan, error)
	UpdateDietPlan(ctx context.Context, p *models.DietPlan) error
	DeleteDietPlan(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteClientDietPlans(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error)

	// DeactivateOthers clears is_active on every plan of the client except keep.
	DeactivateOthers(ctx context.Context, userID, clientID, keep primitive.ObjectID) error
	ActiveDietPlan(ctx context.Context, userID, clientID primitive.ObjectID) (*models.DietPlan, error)
	CountActiveDietPlans(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type MongoDietPlanRepo struct {
	coll *mongo.Collection
}

func NewMongoDietPlanRepo(database *mongo.Database) *MongoDietPlanRepo {
	return &MongoDietPlanRepo{coll: database.Collection(db.DietPlans)}
}

func (r *MongoDietPlanRepo) CreateDietPlan(ctx context.Context, p *models.DietPlan) error {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	id, err := insert(ctx, r.coll, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *MongoDietPlanRepo) ListDietPlans(ctx context.Context, userID primitive.ObjectID, f DietPlanFilter) ([]models.DietPlan, error) {
	filter := bson.M{"user_id": userID}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	return findAll[models.DietPlan](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}}))
}

func (r *MongoDietPlanRepo) GetDietPlan(ctx context.Context, userID, id primitive.ObjectID) (*models.DietPlan, error) {
	p := &models.DietPlan{}
	if err := findOne(ctx, r.coll, ownedFilter(userID, id), p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *MongoDietPlanRepo) UpdateDietPlan(ctx context.Context, p *models.DietPlan) error {
	p.UpdatedAt = now()
	return replaceOwned(ctx, r.coll, p.UserID, p.ID, p)
}

func (r *MongoDietPlanRepo) DeleteDietPlan(ctx context.Context, userID, id primitive.ObjectID) error {
	return deleteOwned(ctx, r.coll, userID, id)
}

func (r *MongoDietPlanRepo) DeleteClientDietPlans(ctx context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	return deleteByClient(ctx, r.coll, userID, clientID)
}

func (r *MongoDietPlanRepo) DeactivateOthers(ctx context.Context, userID, clientID, keep primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "client_id": clientID, "is_active": true, "_id": bson.M{"$ne": keep}},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": now()}},
	)
	if err != nil {
		return fmt.Errorf("deactivate diet plans: %w", err)
	}
	return nil
}

func (r *MongoDietPlanRepo) ActiveDietPlan(ctx context.Context, userID, clientID primitive.ObjectID) (*models.DietPlan, error) {
	p := &models.DietPlan{}
	filter := bson.M{"user_id": userID, "client_id": clientID, "is_active": true}
	opts := options.FindOne().SetSort(bson.D{{Key: "start_date", Value: -1}})
	if err := findOne(ctx, r.coll, filter, p, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *MongoDietPlanRepo) CountActiveDietPlans(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "is_active": true})
	if err != nil {
		return 0, fmt.Errorf("count diet plans: %w", err)
	}
	return n, nil
}
