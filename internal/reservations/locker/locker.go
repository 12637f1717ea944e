// Package locker serializes check-and-write operations per room.
package locker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	reservationerrors "roombook/internal/reservations/errors"
	"roombook/internal/reservations/repository"
	"roombook/pkg/config"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/google/uuid"
)

const releaseTimeout = 5 * time.Second

type Options struct {
	TTL          time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

type RoomLocker struct {
	repo repository.LockRepository
	opts Options
	log  *logger.Logger
}

func New(repo repository.LockRepository, opts Options, log *logger.Logger) *RoomLocker {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &RoomLocker{repo: repo, opts: opts, log: log}
}

func NewFromConfig(cfg *config.Config, repo repository.LockRepository) *RoomLocker {
	return New(repo, Options{
		TTL:          cfg.LockTTL,
		MaxAttempts:  cfg.LockMaxAttempts,
		RetryBackoff: cfg.LockRetryBackoff,
	}, cfg.Log)
}

// WithRooms runs fn while holding the lock of every room in roomIDs.
// Locks are taken in sorted id order and released in reverse. When a lock
// stays held after all attempts, WithRooms returns ErrBusy without running fn.
func (l *RoomLocker) WithRooms(ctx context.Context, roomIDs []string, fn func(ctx context.Context) error) error {
	ids := slices.Clone(roomIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	token := uuid.NewString()
	held := make([]string, 0, len(ids))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(ctx, held[i], token)
		}
	}()

	var expiresAt time.Time
	for _, roomID := range ids {
		lockID := model.RoomLockID(roomID)
		leaseEnd, err := l.acquire(ctx, lockID, token)
		if err != nil {
			return fmt.Errorf("room %s: %w", roomID, err)
		}
		if expiresAt.IsZero() {
			expiresAt = leaseEnd
		}
		held = append(held, lockID)
	}

	if l.opts.TTL <= 0 || len(held) == 0 {
		return fn(ctx)
	}

	// fn must finish before the first lease lapses, otherwise another
	// holder could enter while this one is still writing.
	fnCtx, cancel := context.WithDeadline(ctx, expiresAt.Add(-l.leaseMargin()))
	defer cancel()

	err := fn(fnCtx)
	if err != nil && ctx.Err() == nil && errors.Is(fnCtx.Err(), context.DeadlineExceeded) {
		l.log.Warn("room lock lease ran out before the operation finished", "rooms", ids, "ttl", l.opts.TTL, "error", err)
		return fmt.Errorf("room lock lease expired: %w", reservationerrors.ErrBusy)
	}
	return err
}

// leaseMargin is the part of the TTL kept in reserve for commit and clock skew
// between the lock store and this process.
func (l *RoomLocker) leaseMargin() time.Duration {
	return l.opts.TTL / 5
}

// acquire returns the expiry of the lease it took. The expiry is computed
// before the store call, so it never overstates how long the lease lives.
func (l *RoomLocker) acquire(ctx context.Context, lockID, token string) (time.Time, error) {
	for attempt := 1; ; attempt++ {
		lock := &model.RoomLock{
			ID:        lockID,
			Token:     token,
			ExpiresAt: time.Now().Add(l.opts.TTL).UTC(),
		}
		ok, err := l.repo.Acquire(ctx, lock)
		if err != nil {
			if ctx.Err() != nil {
				return time.Time{}, reservationerrors.ErrBusy
			}
			return time.Time{}, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return lock.ExpiresAt, nil
		}

		if attempt >= l.opts.MaxAttempts || !l.wait(ctx) {
			l.log.Warn("room lock still held", "lock_id", lockID, "attempts", attempt)
			return time.Time{}, reservationerrors.ErrBusy
		}
	}
}

// wait sleeps for the retry backoff. It reports false when ctx would end
// before the next attempt.
func (l *RoomLocker) wait(ctx context.Context) bool {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < l.opts.RetryBackoff {
		return false
	}
	if l.opts.RetryBackoff <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(l.opts.RetryBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (l *RoomLocker) release(ctx context.Context, lockID, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := l.repo.Release(ctx, lockID, token); err != nil {
		l.log.Error("failed to release room lock", "lock_id", lockID, "error", err)
	}
}
