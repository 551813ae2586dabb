package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circdesk/pkg/config"
	"circdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Circulation_locks"
)

// ErrHeld is returned when the lock document already exists and has not
// expired, which means another operation owns the entity right now.
var ErrHeld = errors.New("entity lock is held by another operation")

// Repository provides per-item and per-patron advisory locks.
// A lock is a document whose _id names the entity; insert wins, duplicate
// key means held. A TTL index on expires_at reaps locks abandoned by a
// crashed holder.
type Repository interface {
	Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error
	Release(ctx context.Context, lockID, owner string) error
}

type mongoRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRepository(cfg *config.Config) Repository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	now := time.Now().UTC()
	lock := &model.EntityLock{
		ID:        lockID,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The TTL monitor only runs periodically; clear a stale lock
			// eagerly so a crashed holder does not stall the entity.
			res, delErr := r.collection.DeleteOne(ctx, bson.M{
				"_id":        lockID,
				"expires_at": bson.M{"$lt": now},
			})
			if delErr == nil && res.DeletedCount > 0 {
				if _, retryErr := r.collection.InsertOne(ctx, lock); retryErr == nil {
					return nil
				}
			}
			return ErrHeld
		}
		return fmt.Errorf("failed to acquire entity lock: %w", err)
	}
	return nil
}

func (r *mongoRepository) Release(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release entity lock: %w", err)
	}
	return nil
}
