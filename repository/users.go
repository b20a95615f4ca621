package repository

import (
	"context"
	"fmt"
	"strings"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository stores coach accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(database *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: database.Collection(db.Users)}
}

// NormalizeEmail is applied to every stored and queried address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MongoUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	user.UpdatedAt = user.CreatedAt

	id, err := insert(ctx, r.coll, user)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *MongoUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	if err := findOne(ctx, r.coll, bson.M{"email": NormalizeEmail(email)}, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *MongoUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user := &models.User{}
	if err := findOne(ctx, r.coll, bson.M{"_id": id}, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *MongoUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	user.UpdatedAt = now()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
