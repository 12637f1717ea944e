package repository

import (
	"context"
	"testing"
	"time"

	"roombook/pkg/model"
)

func TestMemoryLockRepository(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryLockRepository()
	repo.now = func() time.Time { return clock }

	lock := func(token string) *model.RoomLock {
		return &model.RoomLock{ID: model.RoomLockID("r1"), Token: token, ExpiresAt: clock.Add(10 * time.Second)}
	}

	ok, err := repo.Acquire(ctx, lock("a"))
	if err != nil || !ok {
		t.Fatalf("first Acquire() = %v, %v", ok, err)
	}
	if ok, _ := repo.Acquire(ctx, lock("b")); ok {
		t.Fatal("second Acquire() should fail while held")
	}
	if ok, _ := repo.Acquire(ctx, &model.RoomLock{ID: model.RoomLockID("r2"), Token: "b", ExpiresAt: clock.Add(time.Second)}); !ok {
		t.Fatal("other room should not contend")
	}

	// wrong token leaves the lease in place
	_ = repo.Release(ctx, model.RoomLockID("r1"), "b")
	if ok, _ := repo.Acquire(ctx, lock("b")); ok {
		t.Fatal("Release() with wrong token must not free the lock")
	}

	_ = repo.Release(ctx, model.RoomLockID("r1"), "a")
	if ok, _ := repo.Acquire(ctx, lock("b")); !ok {
		t.Fatal("Acquire() after release should succeed")
	}

	clock = clock.Add(11 * time.Second)
	if ok, _ := repo.Acquire(ctx, lock("c")); !ok {
		t.Fatal("expired lease should be taken over")
	}
}

func TestMemoryLockRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryLockRepository()
	if _, err := repo.Acquire(ctx, &model.RoomLock{ID: "x", Token: "t", ExpiresAt: time.Now().Add(time.Second)}); err == nil {
		t.Error("Acquire() with canceled context should fail")
	}
}
