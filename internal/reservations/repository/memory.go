package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	reservationerrors "roombook/internal/reservations/errors"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"roombook/pkg/timewindow"

	"github.com/google/uuid"
)

// Store is the in-process backend. ExecuteTransaction holds the write lock
// for the whole function and restores the previous state if it fails.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]model.Room
	reservations map[string]model.Reservation
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]model.Room),
		reservations: make(map[string]model.Reservation),
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) readLock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) writeLock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := maps.Clone(s.rooms)
	reservations := maps.Clone(s.reservations)
	err := fn(context.WithValue(ctx, txKey{}, s))
	if err == nil {
		// Like a mongo commit, a transaction whose context ran out does not apply.
		err = ctx.Err()
	}
	if err != nil {
		s.rooms = rooms
		s.reservations = reservations
		return err
	}
	return nil
}

func (s *Store) Rooms() RoomRepository {
	return &memoryRoomRepository{store: s}
}

func (s *Store) Reservations() ReservationRepository {
	return &memoryReservationRepository{store: s}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type memoryRoomRepository struct {
	store *Store
}

func (r *memoryRoomRepository) Create(ctx context.Context, room *model.Room) error {
	defer r.store.writeLock(ctx)()

	room.ID = uuid.NewString()
	room.CreatedAt = now()
	r.store.rooms[room.ID] = *room
	return nil
}

func (r *memoryRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	defer r.store.readLock(ctx)()

	room, ok := r.store.rooms[id]
	if !ok {
		return nil, reservationerrors.ErrRoomNotFound
	}
	return &room, nil
}

func (r *memoryRoomRepository) FindAll(ctx context.Context) ([]*model.Room, error) {
	defer r.store.readLock(ctx)()

	rooms := make([]*model.Room, 0, len(r.store.rooms))
	for _, room := range r.store.rooms {
		room := room
		rooms = append(rooms, &room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

func (r *memoryRoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	defer r.store.writeLock(ctx)()

	existing, ok := r.store.rooms[id]
	if !ok {
		return reservationerrors.ErrRoomNotFound
	}
	updated := *room
	updated.ID = id
	updated.CreatedAt = existing.CreatedAt
	r.store.rooms[id] = updated
	return nil
}

func (r *memoryRoomRepository) Delete(ctx context.Context, id string) error {
	defer r.store.writeLock(ctx)()

	if _, ok := r.store.rooms[id]; !ok {
		return reservationerrors.ErrRoomNotFound
	}
	delete(r.store.rooms, id)
	return nil
}

func (r *memoryRoomRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}

type memoryReservationRepository struct {
	store *Store
}

func (r *memoryReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	defer r.store.writeLock(ctx)()

	reservation.ID = uuid.NewString()
	reservation.CreatedAt = now()
	r.store.reservations[reservation.ID] = *reservation
	return nil
}

func (r *memoryReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	defer r.store.readLock(ctx)()

	reservation, ok := r.store.reservations[id]
	if !ok {
		return nil, reservationerrors.ErrReservationNotFound
	}
	return &reservation, nil
}

func (r *memoryReservationRepository) Update(ctx context.Context, id string, reservation *model.Reservation) error {
	defer r.store.writeLock(ctx)()

	existing, ok := r.store.reservations[id]
	if !ok {
		return reservationerrors.ErrReservationNotFound
	}
	updated := *reservation
	updated.ID = id
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	r.store.reservations[id] = updated
	return nil
}

func (r *memoryReservationRepository) Delete(ctx context.Context, id string) error {
	defer r.store.writeLock(ctx)()

	if _, ok := r.store.reservations[id]; !ok {
		return reservationerrors.ErrReservationNotFound
	}
	delete(r.store.reservations, id)
	return nil
}

func (r *memoryReservationRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	defer r.store.writeLock(ctx)()

	var deleted int64
	for id, reservation := range r.store.reservations {
		if reservation.RoomID == roomID {
			delete(r.store.reservations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryReservationRepository) FindOverlapping(ctx context.Context, roomID string, w timewindow.Window) ([]*model.Reservation, error) {
	defer r.store.readLock(ctx)()

	var found []*model.Reservation
	for _, reservation := range r.store.reservations {
		if reservation.RoomID != roomID || !timewindow.Overlaps(reservation.Window(), w) {
			continue
		}
		reservation := reservation
		found = append(found, &reservation)
	}
	sortForScope(found, model.ScopeAll)
	return found, nil
}

func (r *memoryReservationRepository) Find(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error) {
	defer r.store.readLock(ctx)()

	found := r.match(filter)
	sortForScope(found, filter.Scope)
	return paginate(found, filter.Limit, filter.Offset), nil
}

func (r *memoryReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	defer r.store.readLock(ctx)()

	return int64(len(r.match(filter))), nil
}

func (r *memoryReservationRepository) match(filter model.ReservationFilter) []*model.Reservation {
	found := []*model.Reservation{}
	for _, reservation := range r.store.reservations {
		reservation := reservation
		if matchesFilter(&reservation, filter) {
			found = append(found, &reservation)
		}
	}
	return found
}

func (r *memoryReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}
