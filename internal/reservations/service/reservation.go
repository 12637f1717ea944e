package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roombook/internal/reservations/access"
	"roombook/internal/reservations/conflict"
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

type ReservationService interface {
	Create(ctx context.Context, actor model.Actor, draft *model.Reservation, now time.Time) (*model.Reservation, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	Update(ctx context.Context, actor model.Actor, id string, patch *model.ReservationUpdate, now time.Time) (*model.Reservation, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
	List(ctx context.Context, actor model.Actor, filter model.ReservationFilter) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	reservations repository.ReservationRepository
	rooms        repository.RoomRepository
	locker       *locker.RoomLocker
	validator    *validator.ReservationValidator
	policy       *validator.PolicyValidator
	publisher    events.Publisher
	cfg          *config.Config
}

func NewReservationService(
	reservations repository.ReservationRepository,
	rooms repository.RoomRepository,
	roomLocker *locker.RoomLocker,
	validator *validator.ReservationValidator,
	policy *validator.PolicyValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &reservationService{
		reservations: reservations,
		rooms:        rooms,
		locker:       roomLocker,
		validator:    validator,
		policy:       policy,
		publisher:    publisher,
		cfg:          cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, actor model.Actor, draft *model.Reservation, now time.Time) (*model.Reservation, error) {
	if !access.CanCreate(actor) {
		return nil, reservationerrors.ErrUnauthorized
	}

	r := *draft
	r.ID = ""
	if r.OwnerID == "" {
		r.OwnerID = actor.UserID
	}
	s.sanitize(&r)

	if err := s.validator.Validate(&r); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "room_id", r.RoomID, "error", err)
		return nil, reservationerrors.NewInputError(err)
	}
	if err := s.policy.Validate(r.Window(), now); err != nil {
		s.cfg.Log.Warn("Reservation rejected by policy",
			"room_id", r.RoomID,
			"start_time", r.StartTime,
			"end_time", r.EndTime,
			"error", err,
		)
		return nil, err
	}
	if !access.CanCreateFor(actor, r.OwnerID) {
		s.cfg.Log.Warn("Reservation for another owner rejected", "user_id", actor.UserID, "owner_id", r.OwnerID)
		return nil, reservationerrors.ErrForbidden
	}

	err := s.locker.WithRooms(ctx, []string{r.RoomID}, func(ctx context.Context) error {
		return s.reservations.ExecuteTransaction(ctx, func(ctx context.Context) error {
			if err := s.ensureRoom(ctx, r.RoomID); err != nil {
				return err
			}
			if err := s.checkConflict(ctx, r.RoomID, r.Window(), ""); err != nil {
				return err
			}
			return s.reservations.Create(ctx, &r)
		})
	})
	if err != nil {
		s.logWriteFailure("Failed to create reservation", err, "room_id", r.RoomID, "start_time", r.StartTime)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", r.ID,
		"room_id", r.RoomID,
		"owner_id", r.OwnerID,
		"start_time", r.StartTime,
		"end_time", r.EndTime,
	)
	publish(ctx, s.cfg, s.publisher, events.NewReservationEvent(events.ReservationCreated, actor, &r))
	return &r, nil
}

func (s *reservationService) Get(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(actor, r) {
		return nil, reservationerrors.ErrForbidden
	}
	return r, nil
}

func (s *reservationService) Update(ctx context.Context, actor model.Actor, id string, patch *model.ReservationUpdate, now time.Time) (*model.Reservation, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(actor, existing) {
		s.cfg.Log.Warn("Reservation update forbidden", "id", id, "user_id", actor.UserID)
		return nil, reservationerrors.ErrForbidden
	}
	if err := s.validator.ValidateUpdate(patch); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed", "id", id, "error", err)
		return nil, reservationerrors.NewInputError(err)
	}

	merged, err := s.merge(existing, patch, now)
	if err != nil {
		return nil, err
	}
	if sameReservation(existing, merged) {
		s.cfg.Log.Debug("Reservation update is a no-op", "id", id)
		return existing, nil
	}

	err = s.locker.WithRooms(ctx, []string{existing.RoomID, merged.RoomID}, func(ctx context.Context) error {
		return s.reservations.ExecuteTransaction(ctx, func(ctx context.Context) error {
			current, err := s.reservations.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !access.CanWrite(actor, current) {
				return reservationerrors.ErrForbidden
			}
			if current.RoomID != existing.RoomID {
				return fmt.Errorf("reservation %s moved while waiting for the lock: %w", id, reservationerrors.ErrBusy)
			}

			next, err := s.merge(current, patch, now)
			if err != nil {
				return err
			}
			if next.RoomID != current.RoomID {
				if err := s.ensureRoom(ctx, next.RoomID); err != nil {
					return err
				}
			}
			if err := s.checkConflict(ctx, next.RoomID, next.Window(), id); err != nil {
				return err
			}
			if err := s.reservations.Update(ctx, id, next); err != nil {
				return err
			}
			merged = next
			return nil
		})
	})
	if err != nil {
		s.logWriteFailure("Failed to update reservation", err, "id", id)
		return nil, err
	}

	s.cfg.Log.Info("Reservation updated successfully", "id", id, "room_id", merged.RoomID)
	publish(ctx, s.cfg, s.publisher, events.NewReservationEvent(events.ReservationUpdated, actor, merged))
	return merged, nil
}

func (s *reservationService) Delete(ctx context.Context, actor model.Actor, id string) error {
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanWrite(actor, existing) {
		s.cfg.Log.Warn("Reservation delete forbidden", "id", id, "user_id", actor.UserID)
		return reservationerrors.ErrForbidden
	}

	err = s.locker.WithRooms(ctx, []string{existing.RoomID}, func(ctx context.Context) error {
		return s.reservations.ExecuteTransaction(ctx, func(ctx context.Context) error {
			current, err := s.reservations.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !access.CanWrite(actor, current) {
				return reservationerrors.ErrForbidden
			}
			return s.reservations.Delete(ctx, id)
		})
	})
	if err != nil {
		s.logWriteFailure("Failed to delete reservation", err, "id", id)
		return err
	}

	s.cfg.Log.Info("Reservation deleted successfully", "id", id, "room_id", existing.RoomID)
	publish(ctx, s.cfg, s.publisher, events.NewReservationEvent(events.ReservationDeleted, actor, existing))
	return nil
}

// List restricts non-admins to their own reservations whatever the filter
// says.
func (s *reservationService) List(ctx context.Context, actor model.Actor, filter model.ReservationFilter) ([]*model.Reservation, int64, error) {
	if !access.CanCreate(actor) {
		return nil, 0, reservationerrors.ErrUnauthorized
	}
	if filter.Scope == "" {
		filter.Scope = model.ScopeUpcoming
	}
	if !filter.Scope.Valid() {
		return nil, 0, reservationerrors.NewInputError(validator.ValidationErrors{{
			Field:   "scope",
			Message: "scope must be one of: upcoming past all",
		}})
	}
	if !access.CanListFor(actor, filter.OwnerID) {
		filter.OwnerID = actor.UserID
	}
	filter.RoomID = sanitizer.SanitizeID(filter.RoomID)
	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Offset = config.NormalizeOffset(filter.Offset)

	var count int64
	var items []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.reservations.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		items, errFind = s.reservations.Find(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", errCount)
	}
	if errFind != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", errFind)
	}

	s.cfg.Log.Debug("Listed reservations",
		"user_id", actor.UserID,
		"scope", filter.Scope,
		"room_id", filter.RoomID,
		"owner_id", filter.OwnerID,
		"count", len(items),
		"total", count,
	)
	return items, count, nil
}

func (s *reservationService) find(ctx context.Context, id string) (*model.Reservation, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, reservationerrors.ErrReservationNotFound
	}
	r, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, reservationerrors.ErrReservationNotFound) {
			s.cfg.Log.Error("Failed to load reservation", "id", id, "error", err)
		}
		return nil, err
	}
	return r, nil
}

// merge applies patch to a copy of base and re-validates the result. Policy
// runs only when the window moves.
func (s *reservationService) merge(base *model.Reservation, patch *model.ReservationUpdate, now time.Time) (*model.Reservation, error) {
	merged := *base
	if patch.Title != "" {
		merged.Title = patch.Title
	}
	if patch.RoomID != "" {
		merged.RoomID = patch.RoomID
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	if patch.Notes != nil {
		merged.Notes = *patch.Notes
	}
	s.sanitize(&merged)

	if err := s.validator.Validate(&merged); err != nil {
		return nil, reservationerrors.NewInputError(err)
	}
	if !merged.StartTime.Equal(base.StartTime) || !merged.EndTime.Equal(base.EndTime) {
		if err := s.policy.Validate(merged.Window(), now); err != nil {
			return nil, err
		}
	}
	return &merged, nil
}

func sameReservation(a, b *model.Reservation) bool {
	return a.Title == b.Title &&
		a.RoomID == b.RoomID &&
		a.StartTime.Equal(b.StartTime) &&
		a.EndTime.Equal(b.EndTime) &&
		a.Notes == b.Notes
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.Title = sanitizer.SanitizeTitle(r.Title)
	r.RoomID = sanitizer.SanitizeID(r.RoomID)
	r.OwnerID = sanitizer.SanitizeID(r.OwnerID)
	r.Notes = sanitizer.SanitizeText(r.Notes)
	r.StartTime = normalizeTime(r.StartTime)
	r.EndTime = normalizeTime(r.EndTime)
}

func (s *reservationService) ensureRoom(ctx context.Context, roomID string) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return err
	}
	return nil
}

func (s *reservationService) checkConflict(ctx context.Context, roomID string, w timewindow.Window, excludeID string) error {
	existingID, err := conflict.FindConflict(ctx, s.reservations, roomID, w, excludeID)
	if err != nil {
		return err
	}
	if existingID != "" {
		return reservationerrors.NewConflict(existingID)
	}
	return nil
}

func (s *reservationService) logWriteFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if isRejection(err) {
		s.cfg.Log.Warn(msg, args...)
		return
	}
	s.cfg.Log.Error(msg, args...)
}

// isRejection reports whether err is a domain outcome rather than an
// infrastructure failure.
func isRejection(err error) bool {
	for _, kind := range []error{
		reservationerrors.ErrConflict,
		reservationerrors.ErrBusy,
		reservationerrors.ErrRoomNotFound,
		reservationerrors.ErrReservationNotFound,
		reservationerrors.ErrForbidden,
		reservationerrors.ErrInvalidInput,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
