package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "gatherly/internal/bookings/errors"
	"gatherly/pkg/config"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Event_locks"
)

// EventLockRepository stores advisory locks, one document per locked event.
// The _id uniqueness makes acquisition atomic; a TTL index on expires_at
// removes locks left behind by crashed processes.
type EventLockRepository interface {
	// Acquire inserts the lock, taking over an expired one. ErrLockHeld
	// means another owner holds it.
	Acquire(ctx context.Context, lock *model.EventLock) error
	Release(ctx context.Context, lockID, owner string) error
}

type mongoEventLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventLockRepository(cfg *config.Config) EventLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoEventLockRepository) Acquire(ctx context.Context, lock *model.EventLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock.CreatedAt = now

	// The TTL monitor runs about once a minute, so expired locks are
	// cleared here as well.
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lt": now}}); err != nil {
		return fmt.Errorf("failed to clear expired lock: %w", err)
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

func (r *mongoEventLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
