package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	userserrors "gatherly/internal/users/errors"
	"gatherly/pkg/config"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

// UserRepository maintains the local projection of user profiles. Profiles
// are owned by the identity service, so every write is an upsert keyed by
// the user ID.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	AddJoinedEvent(ctx context.Context, userID, eventID string) error
	RemoveJoinedEvent(ctx context.Context, userID, eventID string) error
	SetRating(ctx context.Context, userID string, rating model.HostRating) error
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) AddJoinedEvent(ctx context.Context, userID, eventID string) error {
	return r.upsert(ctx, userID, bson.M{
		"$addToSet": bson.M{"joined_events": eventID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) RemoveJoinedEvent(ctx context.Context, userID, eventID string) error {
	return r.upsert(ctx, userID, bson.M{
		"$pull": bson.M{"joined_events": eventID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) SetRating(ctx context.Context, userID string, rating model.HostRating) error {
	return r.upsert(ctx, userID, bson.M{
		"$set": bson.M{
			"rating_average": rating.Average,
			"rating_count":   rating.Count,
			"updated_at":     time.Now().UTC(),
		},
	})
}

func (r *mongoUserRepository) upsert(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return nil
}
