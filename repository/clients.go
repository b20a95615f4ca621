package repository

import (
	"context"
	"fmt"
	"regexp"

	"dietcoach/db"
	"dietcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ClientFilter struct {
	Search string
	Active *bool
}

type ClientRepository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	ListClients(ctx context.Context, userID primitive.ObjectID, f ClientFilter) ([]models.Client, error)
	GetClient(ctx context.Context, userID, id primitive.ObjectID) (*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, userID, id primitive.ObjectID) error
	CountClients(ctx context.Context, userID primitive.ObjectID, active *bool) (int64, error)

	GetClientByReferenceCode(ctx context.Context, code string) (*models.Client, error)
	GetClientByChatID(ctx context.Context, chatID int64) (*models.Client, error)
	// SetTelegramChat links the client to chatID, or unlinks it when chatID is 0.
	SetTelegramChat(ctx context.Context, id primitive.ObjectID, chatID int64) error
}

type MongoClientRepo struct {
	coll *mongo.Collection
}

func NewMongoClientRepo(database *mongo.Database) *MongoClientRepo {
	return &MongoClientRepo{coll: database.Collection(db.Clients)}
}

func (r *MongoClientRepo) CreateClient(ctx context.Context, client *models.Client) error {
	client.CreatedAt = now()
	client.UpdatedAt = client.CreatedAt
	id, err := insert(ctx, r.coll, client)
	if err != nil {
		return err
	}
	client.ID = id
	return nil
}

func (r *MongoClientRepo) ListClients(ctx context.Context, userID primitive.ObjectID, f ClientFilter) ([]models.Client, error) {
	filter := bson.M{"user_id": userID}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"phone": pattern},
		}
	}
	return findAll[models.Client](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *MongoClientRepo) GetClient(ctx context.Context, userID, id primitive.ObjectID) (*models.Client, error) {
	client := &models.Client{}
	if err := findOne(ctx, r.coll, ownedFilter(userID, id), client); err != nil {
		return nil, err
	}
	return client, nil
}

func (r *MongoClientRepo) UpdateClient(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = now()
	return replaceOwned(ctx, r.coll, client.UserID, client.ID, client)
}

func (r *MongoClientRepo) DeleteClient(ctx context.Context, userID, id primitive.ObjectID) error {
	return deleteOwned(ctx, r.coll, userID, id)
}

func (r *MongoClientRepo) CountClients(ctx context.Context, userID primitive.ObjectID, active *bool) (int64, error) {
	filter := bson.M{"user_id": userID}
	if active != nil {
		filter["is_active"] = *active
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (r *MongoClientRepo) GetClientByReferenceCode(ctx context.Context, code string) (*models.Client, error) {
	client := &models.Client{}
	if err := findOne(ctx, r.coll, bson.M{"reference_code": code}, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (r *MongoClientRepo) GetClientByChatID(ctx context.Context, chatID int64) (*models.Client, error) {
	client := &models.Client{}
	if err := findOne(ctx, r.coll, bson.M{"telegram_chat_id": chatID}, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (r *MongoClientRepo) SetTelegramChat(ctx context.Context, id primitive.ObjectID, chatID int64) error {
	ts := now()
	update := bson.M{
		"$set": bson.M{"telegram_chat_id": chatID, "telegram_linked_at": ts, "updated_at": ts},
	}
	if chatID == 0 {
		update = bson.M{
			"$set":   bson.M{"updated_at": ts},
			"$unset": bson.M{"telegram_chat_id": "", "telegram_linked_at": ""},
		}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update telegram chat: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
