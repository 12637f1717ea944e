package locker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	reservationerrors "roombook/internal/reservations/errors"
	"roombook/internal/reservations/repository"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type mockLockRepository struct {
	acquireFunc func(ctx context.Context, lock *model.RoomLock) (bool, error)
	releaseFunc func(ctx context.Context, lockID, token string) error
}

func (m *mockLockRepository) Acquire(ctx context.Context, lock *model.RoomLock) (bool, error) {
	return m.acquireFunc(ctx, lock)
}

func (m *mockLockRepository) Release(ctx context.Context, lockID, token string) error {
	if m.releaseFunc == nil {
		return nil
	}
	return m.releaseFunc(ctx, lockID, token)
}

func testOptions() Options {
	return Options{TTL: time.Second, MaxAttempts: 3, RetryBackoff: time.Millisecond}
}

func TestWithRooms_SortedAndDeduplicated(t *testing.T) {
	var acquired, released []string
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			acquired = append(acquired, lock.ID)
			return true, nil
		},
		releaseFunc: func(ctx context.Context, lockID, token string) error {
			released = append(released, lockID)
			return nil
		},
	}
	l := New(repo, testOptions(), logger.Discard())

	ran := false
	err := l.WithRooms(context.Background(), []string{"b", "a", "b"}, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("WithRooms() = %v, ran = %v", err, ran)
	}

	if len(acquired) != 2 || acquired[0] != "room_lock_a" || acquired[1] != "room_lock_b" {
		t.Errorf("acquired = %v", acquired)
	}
	if len(released) != 2 || released[0] != "room_lock_b" || released[1] != "room_lock_a" {
		t.Errorf("released = %v", released)
	}
}

func TestWithRooms_BusyAfterRetries(t *testing.T) {
	attempts := 0
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			attempts++
			return false, nil
		},
	}
	l := New(repo, testOptions(), logger.Discard())

	err := l.WithRooms(context.Background(), []string{"a"}, func(ctx context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	if !errors.Is(err, reservationerrors.ErrBusy) {
		t.Fatalf("error = %v, want ErrBusy", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRooms_RetrySucceeds(t *testing.T) {
	attempts := 0
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			attempts++
			return attempts == 2, nil
		},
	}
	l := New(repo, testOptions(), logger.Discard())

	if err := l.WithRooms(context.Background(), []string{"a"}, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("WithRooms() error = %v", err)
	}
}

func TestWithRooms_ReleasesPartialOnBusy(t *testing.T) {
	var released []string
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			return lock.ID == "room_lock_a", nil
		},
		releaseFunc: func(ctx context.Context, lockID, token string) error {
			released = append(released, lockID)
			return nil
		},
	}
	l := New(repo, testOptions(), logger.Discard())

	err := l.WithRooms(context.Background(), []string{"a", "b"}, func(ctx context.Context) error { return nil })
	if !errors.Is(err, reservationerrors.ErrBusy) {
		t.Fatalf("error = %v, want ErrBusy", err)
	}
	if len(released) != 1 || released[0] != "room_lock_a" {
		t.Errorf("released = %v, want [room_lock_a]", released)
	}
}

func TestWithRooms_StoreError(t *testing.T) {
	boom := errors.New("store down")
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			return false, boom
		},
	}
	l := New(repo, testOptions(), logger.Discard())

	err := l.WithRooms(context.Background(), []string{"a"}, func(ctx context.Context) error { return nil })
	if !errors.Is(err, boom) || errors.Is(err, reservationerrors.ErrBusy) {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

func TestWithRooms_DeadlineShorterThanBackoff(t *testing.T) {
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			return false, nil
		},
	}
	l := New(repo, Options{TTL: time.Second, MaxAttempts: 100, RetryBackoff: time.Hour}, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.WithRooms(ctx, []string{"a"}, func(ctx context.Context) error { return nil })
	if !errors.Is(err, reservationerrors.ErrBusy) {
		t.Fatalf("error = %v, want ErrBusy", err)
	}
	if time.Since(start) > time.Second {
		t.Error("locker should give up before sleeping past the deadline")
	}
}

func TestWithRooms_MutualExclusion(t *testing.T) {
	l := New(repository.NewMemoryLockRepository(), Options{TTL: 5 * time.Second, MaxAttempts: 1000, RetryBackoff: time.Millisecond}, logger.Discard())

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithRooms(context.Background(), []string{"r1"}, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
}

func TestWithRooms_WorkBoundedByLease(t *testing.T) {
	l := New(repository.NewMemoryLockRepository(), Options{TTL: 50 * time.Millisecond, MaxAttempts: 100, RetryBackoff: 5 * time.Millisecond}, logger.Discard())

	var inside, maxInside int32
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.WithRooms(context.Background(), []string{"r1"}, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				defer atomic.AddInt32(&inside, -1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(150 * time.Millisecond):
					return nil
				}
			})
		}(i)
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
	for i, err := range errs {
		if !errors.Is(err, reservationerrors.ErrBusy) {
			t.Errorf("holder %d error = %v, want ErrBusy", i, err)
		}
	}
}

func TestWithRooms_DeadlineBeforeLeaseExpiry(t *testing.T) {
	var expiresAt time.Time
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) {
			if expiresAt.IsZero() {
				expiresAt = lock.ExpiresAt
			}
			return true, nil
		},
	}
	l := New(repo, testOptions(), logger.Discard())

	err := l.WithRooms(context.Background(), []string{"a", "b"}, func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Fatal("fn context has no deadline")
		}
		if !deadline.Before(expiresAt) {
			t.Errorf("deadline %v should be before lease expiry %v", deadline, expiresAt)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestWithRooms_CallerErrorsPassThrough(t *testing.T) {
	repo := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.RoomLock) (bool, error) { return true, nil },
	}
	l := New(repo, testOptions(), logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	err := l.WithRooms(ctx, []string{"a"}, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
