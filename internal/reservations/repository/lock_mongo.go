package repository

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/config"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// NewMongoLockRepository stores leases in Room_locks. The unique _id makes a
// second insert fail with a duplicate key error while a lease is live.
func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Clients.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(RoomLocksCollection),
	}
}

func (r *mongoLockRepository) Acquire(ctx context.Context, lock *model.RoomLock) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	// The TTL index reaps expired leases only once a minute.
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return false, fmt.Errorf("failed to clear expired room lock: %w", err)
	}

	lock.CreatedAt = now
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert room lock: %w", err)
	}
	return true, nil
}

func (r *mongoLockRepository) Release(ctx context.Context, lockID, token string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "token": token}); err != nil {
		return fmt.Errorf("failed to release room lock: %w", err)
	}
	return nil
}
