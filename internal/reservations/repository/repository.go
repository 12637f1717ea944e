// Package repository persists rooms, reservations and room lock leases.
//
// Two storage backends exist: an in-process Store and MongoDB. Lock leases
// additionally have a Redis backend. Writes that must commit together run
// through ExecuteTransaction; every repository call made with the context
// handed to the transaction function joins that transaction.
package repository

import (
	"context"

	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"roombook/pkg/timewindow"
)

const (
	RoomsCollection        = "Rooms"
	ReservationsCollection = "Reservations"
	RoomLocksCollection    = "Room_locks"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	// FindAll returns every room ordered by name.
	FindAll(ctx context.Context) ([]*model.Room, error)
	Update(ctx context.Context, id string, room *model.Room) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, id string, reservation *model.Reservation) error
	Delete(ctx context.Context, id string) error
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
	// FindOverlapping returns the reservations of roomID whose window
	// overlaps w, ordered by start time.
	FindOverlapping(ctx context.Context, roomID string, w timewindow.Window) ([]*model.Reservation, error)
	Find(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error)
	Count(ctx context.Context, filter model.ReservationFilter) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

// LockRepository stores room lock leases. Acquire reports false when a
// live lease with the same id is held by someone else; expired leases are
// taken over.
type LockRepository interface {
	Acquire(ctx context.Context, lock *model.RoomLock) (bool, error)
	// Release removes the lease only if it is still owned by token.
	Release(ctx context.Context, lockID, token string) error
}
