package engine

import (
	"context"
	"errors"

	reservationerrors "roombook/internal/reservations/errors"
	"roombook/internal/reservations/validator"
	apperrors "roombook/pkg/errors"
)

var policyCodes = []struct {
	kind    error
	code    string
	message string
}{
	{reservationerrors.ErrInvalidWindow, apperrors.CodeInvalidWindow, "End time must be after start time"},
	{reservationerrors.ErrDurationTooShort, apperrors.CodeDurationTooShort, "Reservation is shorter than the minimum duration"},
	{reservationerrors.ErrDurationTooLong, apperrors.CodeDurationTooLong, "Reservation is longer than the maximum duration"},
	{reservationerrors.ErrOutsideBusinessHours, apperrors.CodeOutsideBusinessHours, "Reservation must start and end within business hours of the same day"},
	{reservationerrors.ErrInThePast, apperrors.CodeInThePast, "Reservation cannot start in the past"},
}

// MapError converts a domain failure into the AppError returned to callers.
// Errors that already are AppErrors pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	var conflictErr *reservationerrors.ConflictError
	if errors.As(err, &conflictErr) {
		appErr := apperrors.ConflictWithID("Room is already reserved for an overlapping time window", conflictErr.ExistingID)
		appErr.Err = err
		return appErr
	}

	var inputErr *reservationerrors.InputError
	if errors.As(err, &inputErr) {
		var details map[string]any
		var fieldErrs validator.ValidationErrors
		if errors.As(inputErr.Details, &fieldErrs) {
			details = fieldErrs.Details()
		} else {
			details = map[string]any{"error": inputErr.Details.Error()}
		}
		appErr := apperrors.Validation("Invalid input", details)
		appErr.Err = err
		return appErr
	}

	for _, p := range policyCodes {
		if errors.Is(err, p.kind) {
			appErr := apperrors.Policy(p.code, p.message)
			appErr.Err = err
			return appErr
		}
	}

	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, reservationerrors.ErrRoomNotFound):
		appErr = apperrors.NotFound("Room")
		appErr.Code = apperrors.CodeRoomNotFound
	case errors.Is(err, reservationerrors.ErrReservationNotFound):
		appErr = apperrors.NotFound("Reservation")
		appErr.Code = apperrors.CodeReservationNotFound
	case errors.Is(err, reservationerrors.ErrUnauthorized):
		appErr = apperrors.Unauthorized("Authentication required")
	case errors.Is(err, reservationerrors.ErrForbidden):
		appErr = apperrors.Forbidden("You are not allowed to perform this operation")
	case errors.Is(err, reservationerrors.ErrConflict):
		appErr = apperrors.Conflict("Room is already reserved for an overlapping time window")
	case errors.Is(err, reservationerrors.ErrBusy):
		appErr = apperrors.Busy("Room is busy, please retry")
	case errors.Is(err, reservationerrors.ErrInvalidInput):
		appErr = apperrors.Validation("Invalid input", nil)
	case errors.Is(err, context.DeadlineExceeded):
		appErr = apperrors.Timeout("Operation timed out")
	default:
		return apperrors.Internal("An unexpected error occurred", err)
	}
	appErr.Err = err
	return appErr
}
