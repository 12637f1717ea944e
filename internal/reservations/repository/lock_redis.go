package repository

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/model"

	"github.com/go-redis/redis/v8"
)

const redisLockPrefix = "roombook:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLockRepository struct {
	client *redis.Client
}

// NewRedisLockRepository keeps each lease as a key with a PX expiry.
func NewRedisLockRepository(client *redis.Client) LockRepository {
	return &redisLockRepository{client: client}
}

func (r *redisLockRepository) Acquire(ctx context.Context, lock *model.RoomLock) (bool, error) {
	ttl := time.Until(lock.ExpiresAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	ok, err := r.client.SetNX(ctx, redisLockPrefix+lock.ID, lock.Token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set room lock: %w", err)
	}
	if ok {
		lock.CreatedAt = time.Now().UTC()
	}
	return ok, nil
}

func (r *redisLockRepository) Release(ctx context.Context, lockID, token string) error {
	if err := releaseScript.Run(ctx, r.client, []string{redisLockPrefix + lockID}, token).Err(); err != nil {
		return fmt.Errorf("failed to release room lock: %w", err)
	}
	return nil
}
