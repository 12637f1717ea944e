package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roombook/internal/reservations/access"
	reservationerrors "roombook/internal/reservations/errors"
	"roombook/internal/reservations/events"
	"roombook/internal/reservations/locker"
	"roombook/internal/reservations/repository"
	"roombook/internal/reservations/validator"
	"roombook/pkg/config"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/timewindow"
)

type RoomService interface {
	Create(ctx context.Context, actor model.Actor, room *model.Room) (*model.Room, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Room, error)
	List(ctx context.Context, actor model.Actor) ([]*model.Room, error)
	Update(ctx context.Context, actor model.Actor, id string, patch *model.RoomUpdate) (*model.Room, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
	Availability(ctx context.Context, actor model.Actor, id string, date time.Time) ([]model.TimeSlot, error)
}

type roomService struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	locker       *locker.RoomLocker
	validator    *validator.RoomValidator
	policy       *validator.PolicyValidator
	publisher    events.Publisher
	cfg          *config.Config
}

func NewRoomService(
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	roomLocker *locker.RoomLocker,
	validator *validator.RoomValidator,
	policy *validator.PolicyValidator,
	publisher events.Publisher,
	cfg *config.Config,
) RoomService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &roomService{
		rooms:        rooms,
		reservations: reservations,
		locker:       roomLocker,
		validator:    validator,
		policy:       policy,
		publisher:    publisher,
		cfg:          cfg,
	}
}

func (s *roomService) Create(ctx context.Context, actor model.Actor, draft *model.Room) (*model.Room, error) {
	if err := s.authorizeManage(actor); err != nil {
		return nil, err
	}

	room := *draft
	room.ID = ""
	s.sanitize(&room)
	if room.Color == "" {
		room.Color = model.DefaultRoomColor
	}
	if err := s.validator.Validate(&room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "name", room.Name, "error", err)
		return nil, reservationerrors.NewInputError(err)
	}

	if err := s.rooms.Create(ctx, &room); err != nil {
		s.cfg.Log.Error("Failed to create room", "name", room.Name, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Room created successfully", "id", room.ID, "name", room.Name, "capacity", room.Capacity)
	publish(ctx, s.cfg, s.publisher, events.NewRoomEvent(events.RoomCreated, actor, &room))
	return &room, nil
}

func (s *roomService) Get(ctx context.Context, actor model.Actor, id string) (*model.Room, error) {
	if !access.CanCreate(actor) {
		return nil, reservationerrors.ErrUnauthorized
	}
	return s.find(ctx, id)
}

func (s *roomService) List(ctx context.Context, actor model.Actor) ([]*model.Room, error) {
	if !access.CanCreate(actor) {
		return nil, reservationerrors.ErrUnauthorized
	}
	rooms, err := s.rooms.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", err)
		return nil, err
	}
	return rooms, nil
}

func (s *roomService) Update(ctx context.Context, actor model.Actor, id string, patch *model.RoomUpdate) (*model.Room, error) {
	if err := s.authorizeManage(actor); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUpdate(patch); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return nil, reservationerrors.NewInputError(err)
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if patch.Name != "" {
		merged.Name = patch.Name
	}
	if patch.Capacity != nil {
		merged.Capacity = *patch.Capacity
	}
	if patch.Color != "" {
		merged.Color = patch.Color
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	s.sanitize(&merged)
	if err := s.validator.Validate(&merged); err != nil {
		return nil, reservationerrors.NewInputError(err)
	}

	if err := s.rooms.Update(ctx, existing.ID, &merged); err != nil {
		if !errors.Is(err, reservationerrors.ErrRoomNotFound) {
			s.cfg.Log.Error("Failed to update room", "id", id, "error", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Room updated successfully", "id", existing.ID)
	publish(ctx, s.cfg, s.publisher, events.NewRoomEvent(events.RoomUpdated, actor, &merged))
	return &merged, nil
}

// Delete removes the room and all of its reservations in one transaction.
func (s *roomService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := s.authorizeManage(actor); err != nil {
		return err
	}
	room, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var removed int64
	err = s.locker.WithRooms(ctx, []string{room.ID}, func(ctx context.Context) error {
		return s.rooms.ExecuteTransaction(ctx, func(ctx context.Context) error {
			n, err := s.reservations.DeleteByRoom(ctx, room.ID)
			if err != nil {
				return err
			}
			if err := s.rooms.Delete(ctx, room.ID); err != nil {
				return err
			}
			removed = n
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, reservationerrors.ErrRoomNotFound) || errors.Is(err, reservationerrors.ErrBusy) {
			s.cfg.Log.Warn("Failed to delete room", "id", room.ID, "error", err)
		} else {
			s.cfg.Log.Error("Failed to delete room", "id", room.ID, "error", err)
		}
		return err
	}

	s.cfg.Log.Info("Room deleted successfully", "id", room.ID, "reservations_removed", removed)
	publish(ctx, s.cfg, s.publisher, events.NewRoomEvent(events.RoomDeleted, actor, room))
	return nil
}

// Availability returns the free slots of the room within the business hours
// of the local day containing date.
func (s *roomService) Availability(ctx context.Context, actor model.Actor, id string, date time.Time) ([]model.TimeSlot, error) {
	room, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	day := s.policy.BusinessDay(date)
	booked, err := s.reservations.FindOverlapping(ctx, room.ID, day)
	if err != nil {
		s.cfg.Log.Error("Failed to load room schedule", "id", room.ID, "error", err)
		return nil, fmt.Errorf("failed to load room schedule: %w", err)
	}

	busy := make([]timewindow.Window, 0, len(booked))
	for _, r := range booked {
		busy = append(busy, r.Window())
	}

	gaps := timewindow.Gaps(day, busy)
	slots := make([]model.TimeSlot, 0, len(gaps))
	for _, g := range gaps {
		slots = append(slots, model.TimeSlot{StartTime: g.Start, EndTime: g.End})
	}
	return slots, nil
}

func (s *roomService) find(ctx context.Context, id string) (*model.Room, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, reservationerrors.ErrRoomNotFound
	}
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, reservationerrors.ErrRoomNotFound) {
			s.cfg.Log.Error("Failed to load room", "id", id, "error", err)
		}
		return nil, err
	}
	return room, nil
}

func (s *roomService) authorizeManage(actor model.Actor) error {
	if !access.CanCreate(actor) {
		return reservationerrors.ErrUnauthorized
	}
	if !access.CanManageRooms(actor) {
		s.cfg.Log.Warn("Room management forbidden", "user_id", actor.UserID)
		return reservationerrors.ErrForbidden
	}
	return nil
}

func (s *roomService) sanitize(room *model.Room) {
	room.Name = sanitizer.SanitizeRoomName(room.Name)
	room.Color = sanitizer.SanitizeColor(room.Color)
	room.Description = sanitizer.SanitizeText(room.Description)
}
