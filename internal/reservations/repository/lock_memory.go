package repository

import (
	"context"
	"sync"
	"time"

	"roombook/pkg/model"
)

// MemoryLockRepository keeps leases in process memory. It only excludes
// requests served by the same process.
type MemoryLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.RoomLock
	now   func() time.Time
}

func NewMemoryLockRepository() *MemoryLockRepository {
	return &MemoryLockRepository{
		locks: make(map[string]model.RoomLock),
		now:   time.Now,
	}
}

func (r *MemoryLockRepository) Acquire(ctx context.Context, lock *model.RoomLock) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.locks[lock.ID]; ok && r.now().Before(held.ExpiresAt) {
		return false, nil
	}
	lock.CreatedAt = r.now()
	r.locks[lock.ID] = *lock
	return true, nil
}

func (r *MemoryLockRepository) Release(ctx context.Context, lockID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.locks[lockID]; ok && held.Token == token {
		delete(r.locks, lockID)
	}
	return nil
}
