package repository

import (
	"context"
	"fmt"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionRepository tracks issued tokens so they can be revoked.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	SessionActive(ctx context.Context, token string) (bool, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID primitive.ObjectID) error
}

type MongoSessionRepo struct {
	coll *mongo.Collection
}

func NewMongoSessionRepo(database *mongo.Database) *MongoSessionRepo {
	return &MongoSessionRepo{coll: database.Collection(db.Sessions)}
}

func (r *MongoSessionRepo) CreateSession(ctx context.Context, session *models.Session) error {
	id, err := insert(ctx, r.coll, session)
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

// SessionActive is true when the token exists and has not expired.
func (r *MongoSessionRepo) SessionActive(ctx context.Context, token string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": now().Unix()},
	})
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}
	return n > 0, nil
}

func (r *MongoSessionRepo) DeleteSession(ctx context.Context, token string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoSessionRepo) DeleteUserSessions(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
