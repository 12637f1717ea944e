package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reservationerrors "roombook/internal/reservations/errors"
	"roombook/internal/reservations/events"
	"roombook/internal/reservations/locker"
	"roombook/internal/reservations/repository"
	"roombook/internal/reservations/validator"
	"roombook/pkg/config"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

var (
	now   = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	admin = model.Actor{UserID: "A1", Role: model.RoleAdmin}
	u1    = model.Actor{UserID: "U1", Role: model.RoleUser}
	u2    = model.Actor{UserID: "U2", Role: model.RoleUser}
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store        *repository.Store
	reservations ReservationService
	rooms        RoomService
	publisher    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{Log: log}

	store := repository.NewStore()
	roomLocker := locker.New(repository.NewMemoryLockRepository(), locker.Options{
		TTL:          5 * time.Second,
		MaxAttempts:  500,
		RetryBackoff: time.Millisecond,
	}, log)
	policy := validator.NewPolicyValidator(validator.DefaultPolicy())
	publisher := &recordingPublisher{}

	return &fixture{
		store:     store,
		publisher: publisher,
		reservations: NewReservationService(store.Reservations(), store.Rooms(), roomLocker,
			validator.NewReservationValidator(log), policy, publisher, cfg),
		rooms: NewRoomService(store.Rooms(), store.Reservations(), roomLocker,
			validator.NewRoomValidator(log), policy, publisher, cfg),
	}
}

func (f *fixture) room(t *testing.T, name string) *model.Room {
	t.Helper()
	room, err := f.rooms.Create(context.Background(), admin, &model.Room{Name: name, Capacity: 4})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func (f *fixture) book(actor model.Actor, roomID string, start, end time.Time) (*model.Reservation, error) {
	return f.reservations.Create(context.Background(), actor, &model.Reservation{
		Title:     "meeting",
		RoomID:    roomID,
		StartTime: start,
		EndTime:   end,
	}, now)
}

func TestScenario_ConflictAndTouchingBoundary(t *testing.T) {
	f := newFixture(t)
	r1 := f.room(t, "R1")

	first, err := f.book(u1, r1.ID, at(9, 0), at(10, 0))
	if err != nil {
		t.Fatalf("09:00-10:00 error = %v", err)
	}
	if first.ID == "" || first.OwnerID != "U1" {
		t.Errorf("created = %+v", first)
	}

	_, err = f.book(u1, r1.ID, at(9, 30), at(10, 30))
	var conflictErr *reservationerrors.ConflictError
	if !errors.As(err, &conflictErr) || conflictErr.ExistingID != first.ID {
		t.Fatalf("09:30-10:30 error = %v, want conflict with %s", err, first.ID)
	}

	if _, err := f.book(u1, r1.ID, at(10, 0), at(11, 0)); err != nil {
		t.Errorf("10:00-11:00 error = %v, want success", err)
	}
}

func TestScenario_DeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.room(t, "R1")
	res, err := f.book(u1, r1.ID, at(9, 0), at(10, 0))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.reservations.Delete(ctx, u2, res.ID); !errors.Is(err, reservationerrors.ErrForbidden) {
		t.Fatalf("U2 delete error = %v, want Forbidden", err)
	}
	if err := f.reservations.Delete(ctx, admin, res.ID); err != nil {
		t.Fatalf("A1 delete error = %v", err)
	}

	items, total, err := f.reservations.List(ctx, admin, model.ReservationFilter{RoomID: r1.ID, Scope: model.ScopeAll})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("list after delete = %d items (total %d)", len(items), total)
	}
	if err := f.reservations.Delete(ctx, admin, res.ID); !errors.Is(err, reservationerrors.ErrReservationNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestCreate_PolicyScenarios(t *testing.T) {
	f := newFixture(t)
	r1 := f.room(t, "R1")

	tests := []struct {
		name       string
		start, end time.Time
		now        time.Time
		want       error
	}{
		{"before opening", at(7, 30), at(8, 30), now, reservationerrors.ErrOutsideBusinessHours},
		{"too short", at(8, 0), at(8, 15), now, reservationerrors.ErrDurationTooShort},
		{"too long", at(8, 0), at(13, 0), now, reservationerrors.ErrDurationTooLong},
		{"inverted", at(10, 0), at(9, 0), now, reservationerrors.ErrInvalidWindow},
		{"past", at(9, 0), at(10, 0), at(12, 0), reservationerrors.ErrInThePast},
		{"closing edge", at(17, 0), at(18, 0), now, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reservations.Create(context.Background(), u1, &model.Reservation{
				Title: "x", RoomID: r1.ID, StartTime: tt.start, EndTime: tt.end,
			}, tt.now)
			if !errors.Is(err, tt.want) && !(tt.want == nil && err == nil) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreate_DurationCheckedBeforeConflict(t *testing.T) {
	f := newFixture(t)
	r1 := f.room(t, "R1")
	if _, err := f.book(u1, r1.ID, at(9, 0), at(10, 0)); err != nil {
		t.Fatal(err)
	}

	_, err := f.book(u1, r1.ID, at(9, 0), at(9, 10))
	if !errors.Is(err, reservationerrors.ErrDurationTooShort) {
		t.Errorf("error = %v, want DurationTooShort", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	r1 := f.room(t, "R1")
	ctx := context.Background()

	_, err := f.reservations.Create(ctx, u1, &model.Reservation{Title: "   ", RoomID: r1.ID, StartTime: at(9, 0), EndTime: at(10, 0)}, now)
	if !errors.Is(err, reservationerrors.ErrInvalidInput) {
		t.Errorf("blank title error = %v", err)
	}

	_, err = f.book(u1, "missing-room", at(9, 0), at(10, 0))
	if !errors.Is(err, reservationerrors.ErrRoomNotFound) {
		t.Errorf("unknown room error = %v", err)
	}

	_, err = f.book(model.Actor{}, r1.ID, at(9, 0), at(10, 0))
	if !errors.Is(err, reservationerrors.ErrUnauthorized) {
		t.Errorf("anonymous error = %v", err)
	}
}

func TestCreate_ForeignOwner(t *testing.T) {
	f := newFixture(t)
	r1 := f.room(t, "R1")
	ctx := context.Background()
	draft := &model.Reservation{Title: "x", RoomID: r1.ID, OwnerID: "U1", StartTime: at(9, 0), EndTime: at(10, 0)}

	if _, err := f.reservations.Create(ctx, u2, draft, now); !errors.Is(err, reservationerrors.ErrForbidden) {
		t.Errorf("U2 for U1 error = %v, want Forbidden", err)
	}
	created, err := f.reservations.Create(ctx, admin, draft, now)
	if err != nil {
		t.Fatal(err)
	}
	if created.OwnerID != "U1" {
		t.Errorf("owner = %q, want U1", created.OwnerID)
	}
}

func TestCreate_ConcurrentIdenticalWindow(t *testing.T) {
	f := newFixture(t)
	r1 := f.room(t, "R1")

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.book(u1, r1.ID, at(9, 0), at(10, 0))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, reservationerrors.ErrConflict), errors.Is(err, reservationerrors.ErrBusy):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.room(t, "R1")
	r2 := f.room(t, "R2")
	res, _ := f.book(u1, r1.ID, at(9, 0), at(10, 0))
	other, _ := f.book(u2, r1.ID, at(11, 0), at(12, 0))

	t.Run("no-op patch leaves record unchanged", func(t *testing.T) {
		before := len(f.publisher.types())
		got, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{Title: "meeting"}, now)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "meeting" || !got.StartTime.Equal(at(9, 0)) {
			t.Errorf("got = %+v", got)
		}
		if len(f.publisher.types()) != before {
			t.Error("no-op update should not publish")
		}
	})

	t.Run("window unchanged skips past check", func(t *testing.T) {
		got, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{Notes: ptr("bring laptop")}, at(9, 30))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got.Notes != "bring laptop" {
			t.Errorf("notes = %q", got.Notes)
		}
	})

	t.Run("overlap excluding self", func(t *testing.T) {
		got, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{EndTime: ptr(at(10, 30))}, now)
		if err != nil {
			t.Fatalf("extending into own window error = %v", err)
		}
		if !got.EndTime.Equal(at(10, 30)) {
			t.Errorf("end = %v", got.EndTime)
		}
	})

	t.Run("conflict with other", func(t *testing.T) {
		_, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{StartTime: ptr(at(10, 30)), EndTime: ptr(at(11, 30))}, now)
		var conflictErr *reservationerrors.ConflictError
		if !errors.As(err, &conflictErr) || conflictErr.ExistingID != other.ID {
			t.Errorf("error = %v, want conflict with %s", err, other.ID)
		}
	})

	t.Run("move to other room", func(t *testing.T) {
		got, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{RoomID: r2.ID, StartTime: ptr(at(11, 0)), EndTime: ptr(at(12, 0))}, now)
		if err != nil {
			t.Fatal(err)
		}
		if got.RoomID != r2.ID || got.OwnerID != "U1" {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("move to missing room", func(t *testing.T) {
		_, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{RoomID: "nowhere"}, now)
		if !errors.Is(err, reservationerrors.ErrRoomNotFound) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("policy on new window", func(t *testing.T) {
		_, err := f.reservations.Update(ctx, u1, res.ID, &model.ReservationUpdate{EndTime: ptr(at(19, 0))}, now)
		if !errors.Is(err, reservationerrors.ErrDurationTooLong) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		_, err := f.reservations.Update(ctx, u2, res.ID, &model.ReservationUpdate{Title: "mine"}, now)
		if !errors.Is(err, reservationerrors.ErrForbidden) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.reservations.Update(ctx, u1, "nope", &model.ReservationUpdate{Title: "x"}, now)
		if !errors.Is(err, reservationerrors.ErrReservationNotFound) {
			t.Errorf("error = %v", err)
		}
	})

	got, _ := f.reservations.Get(ctx, u1, res.ID)
	if got.RoomID != r2.ID || got.Title != "meeting" {
		t.Errorf("final state = %+v", got)
	}
}

func TestGet_ReadAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.room(t, "R1")
	res, _ := f.book(u1, r1.ID, at(9, 0), at(10, 0))

	if _, err := f.reservations.Get(ctx, u2, res.ID); !errors.Is(err, reservationerrors.ErrForbidden) {
		t.Errorf("U2 get error = %v", err)
	}
	if _, err := f.reservations.Get(ctx, admin, res.ID); err != nil {
		t.Errorf("admin get error = %v", err)
	}
	if _, err := f.reservations.Get(ctx, u1, ""); !errors.Is(err, reservationerrors.ErrReservationNotFound) {
		t.Errorf("empty id error = %v", err)
	}
}

func TestList_NonAdminSeesOnlyOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.room(t, "R1")
	_, _ = f.book(u1, r1.ID, at(9, 0), at(10, 0))
	_, _ = f.book(u2, r1.ID, at(10, 0), at(11, 0))
	_, _ = f.book(u2, r1.ID, at(11, 0), at(12, 0))

	items, total, err := f.reservations.List(ctx, u1, model.ReservationFilter{OwnerID: "U2", Scope: model.ScopeAll, Now: now})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].OwnerID != "U1" {
		t.Errorf("U1 list = %+v (total %d)", items, total)
	}

	items, total, _ = f.reservations.List(ctx, admin, model.ReservationFilter{OwnerID: "U2", Scope: model.ScopeAll, Now: now})
	if total != 2 || len(items) != 2 {
		t.Errorf("admin filtered list = %d (total %d)", len(items), total)
	}

	_, total, _ = f.reservations.List(ctx, admin, model.ReservationFilter{Scope: model.ScopePast, Now: at(10, 30)})
	if total != 2 {
		t.Errorf("past total = %d, want 2", total)
	}

	if _, _, err := f.reservations.List(ctx, u1, model.ReservationFilter{Scope: "later"}); !errors.Is(err, reservationerrors.ErrInvalidInput) {
		t.Errorf("bad scope error = %v", err)
	}
}

func TestList_DefaultPageAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Reservations()
	const stored = config.MinPaginationLimit + 5
	for i := 0; i < stored; i++ {
		start := at(9, 0).Add(time.Duration(i) * 24 * time.Hour)
		r := &model.Reservation{Title: "standup", RoomID: "R1", OwnerID: "U1", StartTime: start, EndTime: start.Add(30 * time.Minute)}
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	var seen int
	for offset := int64(0); ; {
		items, total, err := f.reservations.List(ctx, u1, model.ReservationFilter{Scope: model.ScopeAll, Offset: offset, Now: now})
		if err != nil {
			t.Fatal(err)
		}
		if total != stored {
			t.Fatalf("total = %d, want %d", total, stored)
		}
		if offset == 0 && len(items) != config.MinPaginationLimit {
			t.Errorf("first page = %d items, want %d", len(items), config.MinPaginationLimit)
		}
		seen += len(items)
		offset += int64(len(items))
		if len(items) == 0 || offset >= total {
			break
		}
	}
	if seen != stored {
		t.Errorf("paged through %d reservations, want %d", seen, stored)
	}
}

func TestRooms_AdminOnlyMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.rooms.Create(ctx, u1, &model.Room{Name: "R1", Capacity: 4}); !errors.Is(err, reservationerrors.ErrForbidden) {
		t.Errorf("user create error = %v", err)
	}
	room := f.room(t, "R1")
	if room.Color != model.DefaultRoomColor {
		t.Errorf("color = %q, want default", room.Color)
	}

	updated, err := f.rooms.Update(ctx, admin, room.ID, &model.RoomUpdate{Capacity: ptr(10), Color: "FF0000"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Capacity != 10 || updated.Color != "#ff0000" || updated.Name != "R1" {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := f.rooms.Update(ctx, admin, room.ID, &model.RoomUpdate{Capacity: ptr(0)}); !errors.Is(err, reservationerrors.ErrInvalidInput) {
		t.Errorf("zero capacity error = %v", err)
	}
	if _, err := f.rooms.Update(ctx, admin, "missing", &model.RoomUpdate{Name: "x"}); !errors.Is(err, reservationerrors.ErrRoomNotFound) {
		t.Errorf("missing room error = %v", err)
	}
	if err := f.rooms.Delete(ctx, u1, room.ID); !errors.Is(err, reservationerrors.ErrForbidden) {
		t.Errorf("user delete error = %v", err)
	}
	if _, err := f.rooms.List(ctx, model.Actor{}); !errors.Is(err, reservationerrors.ErrUnauthorized) {
		t.Errorf("anonymous list error = %v", err)
	}
}

func TestRooms_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.room(t, "R1")
	r2 := f.room(t, "R2")
	a, _ := f.book(u1, r1.ID, at(9, 0), at(10, 0))
	_, _ = f.book(u2, r1.ID, at(10, 0), at(11, 0))
	kept, _ := f.book(u1, r2.ID, at(9, 0), at(10, 0))

	if err := f.rooms.Delete(ctx, admin, r1.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.rooms.Get(ctx, u1, r1.ID); !errors.Is(err, reservationerrors.ErrRoomNotFound) {
		t.Errorf("room get error = %v", err)
	}
	if _, err := f.reservations.Get(ctx, admin, a.ID); !errors.Is(err, reservationerrors.ErrReservationNotFound) {
		t.Errorf("reservation of deleted room error = %v", err)
	}
	if _, err := f.reservations.Get(ctx, admin, kept.ID); err != nil {
		t.Errorf("other room's reservation should survive: %v", err)
	}
	if err := f.rooms.Delete(ctx, admin, r1.ID); !errors.Is(err, reservationerrors.ErrRoomNotFound) {
		t.Errorf("second delete error = %v", err)
	}

	rooms, _ := f.rooms.List(ctx, u1)
	if len(rooms) != 1 || rooms[0].ID != r2.ID {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestRooms_Availability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.room(t, "R1")
	_, _ = f.book(u1, r1.ID, at(9, 0), at(10, 0))
	_, _ = f.book(u2, r1.ID, at(13, 0), at(14, 30))

	slots, err := f.rooms.Availability(ctx, u2, r1.ID, at(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := []model.TimeSlot{
		{StartTime: at(8, 0), EndTime: at(9, 0)},
		{StartTime: at(10, 0), EndTime: at(13, 0)},
		{StartTime: at(14, 30), EndTime: at(18, 0)},
	}
	if len(slots) != len(want) {
		t.Fatalf("slots = %+v", slots)
	}
	for i := range want {
		if !slots[i].StartTime.Equal(want[i].StartTime) || !slots[i].EndTime.Equal(want[i].EndTime) {
			t.Errorf("slot %d = %+v, want %+v", i, slots[i], want[i])
		}
	}

	if _, err := f.rooms.Availability(ctx, u2, "missing", at(0, 0)); !errors.Is(err, reservationerrors.ErrRoomNotFound) {
		t.Errorf("missing room error = %v", err)
	}
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.err = errors.New("broker down")

	r1 := f.room(t, "R1")
	res, err := f.book(u1, r1.ID, at(9, 0), at(10, 0))
	if err != nil {
		t.Fatalf("publisher failure must not fail the write: %v", err)
	}
	_, _ = f.book(u1, r1.ID, at(9, 0), at(10, 0))
	_ = f.reservations.Delete(ctx, u1, res.ID)
	_ = f.rooms.Delete(ctx, admin, r1.ID)

	got := f.publisher.types()
	want := []events.Type{events.RoomCreated, events.ReservationCreated, events.ReservationDeleted, events.RoomDeleted}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}
