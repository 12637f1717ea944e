// Package engine is the entry point to the reservation system. It turns
// session data into actors, supplies the current time and maps domain
// failures to AppErrors. It holds no state of its own.
package engine

import (
	"context"
	"strings"
	"time"

	reservationerrors "roombook/internal/reservations/errors"
	"roombook/internal/reservations/service"
	"roombook/pkg/clock"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

// Session is what the auth gateway tells us about the caller.
type Session struct {
	UserID string
	Role   string
}

type Engine struct {
	reservations service.ReservationService
	rooms        service.RoomService
	clock        clock.Clock
	log          *logger.Logger
}

func New(reservations service.ReservationService, rooms service.RoomService, clk clock.Clock, log *logger.Logger) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Engine{
		reservations: reservations,
		rooms:        rooms,
		clock:        clk,
		log:          log,
	}
}

// Actor validates s. An empty role means a regular user.
func (e *Engine) Actor(s Session) (model.Actor, error) {
	userID := strings.TrimSpace(s.UserID)
	if userID == "" {
		return model.Actor{}, MapError(reservationerrors.ErrUnauthorized)
	}

	role := model.Role(strings.ToLower(strings.TrimSpace(s.Role)))
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		e.log.Warn("Rejected session with unknown role", "user_id", userID, "role", s.Role)
		return model.Actor{}, apperrors.Unauthorized("Unknown role")
	}
	return model.Actor{UserID: userID, Role: role}, nil
}

func (e *Engine) CreateReservation(ctx context.Context, s Session, draft *model.Reservation) (*model.Reservation, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	r, err := e.reservations.Create(ctx, actor, draft, e.clock.Now())
	return r, MapError(err)
}

func (e *Engine) GetReservation(ctx context.Context, s Session, id string) (*model.Reservation, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	r, err := e.reservations.Get(ctx, actor, id)
	return r, MapError(err)
}

func (e *Engine) UpdateReservation(ctx context.Context, s Session, id string, patch *model.ReservationUpdate) (*model.Reservation, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	r, err := e.reservations.Update(ctx, actor, id, patch, e.clock.Now())
	return r, MapError(err)
}

func (e *Engine) DeleteReservation(ctx context.Context, s Session, id string) error {
	actor, err := e.Actor(s)
	if err != nil {
		return err
	}
	return MapError(e.reservations.Delete(ctx, actor, id))
}

// ListReservations returns one page of matches and the total match count.
// A zero filter.Limit yields config.MinPaginationLimit items and larger limits
// are capped at config.DefaultPaginationLimit, so callers that want every match
// must advance filter.Offset until it reaches total. filter.Now defaults to the
// clock when it is unset.
func (e *Engine) ListReservations(ctx context.Context, s Session, filter model.ReservationFilter) ([]*model.Reservation, int64, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, 0, err
	}
	if filter.Now.IsZero() {
		filter.Now = e.clock.Now()
	}
	items, total, err := e.reservations.List(ctx, actor, filter)
	return items, total, MapError(err)
}

func (e *Engine) CreateRoom(ctx context.Context, s Session, room *model.Room) (*model.Room, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	created, err := e.rooms.Create(ctx, actor, room)
	return created, MapError(err)
}

func (e *Engine) GetRoom(ctx context.Context, s Session, id string) (*model.Room, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	room, err := e.rooms.Get(ctx, actor, id)
	return room, MapError(err)
}

func (e *Engine) ListRooms(ctx context.Context, s Session) ([]*model.Room, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	rooms, err := e.rooms.List(ctx, actor)
	return rooms, MapError(err)
}

func (e *Engine) UpdateRoom(ctx context.Context, s Session, id string, patch *model.RoomUpdate) (*model.Room, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	room, err := e.rooms.Update(ctx, actor, id, patch)
	return room, MapError(err)
}

func (e *Engine) DeleteRoom(ctx context.Context, s Session, id string) error {
	actor, err := e.Actor(s)
	if err != nil {
		return err
	}
	return MapError(e.rooms.Delete(ctx, actor, id))
}

// RoomAvailability uses today when date is zero.
func (e *Engine) RoomAvailability(ctx context.Context, s Session, id string, date time.Time) ([]model.TimeSlot, error) {
	actor, err := e.Actor(s)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = e.clock.Now()
	}
	slots, err := e.rooms.Availability(ctx, actor, id, date)
	return slots, MapError(err)
}
