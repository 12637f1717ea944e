// Package errors defines the failure kinds of the reservation domain.
// Callers classify them with errors.Is and errors.As.
package errors

import (
	"errors"
	"fmt"

	"roombook/pkg/timewindow"
)

var (
	ErrInvalidWindow = timewindow.ErrInvalidWindow

	ErrDurationTooShort     = errors.New("reservation is shorter than the minimum duration")
	ErrDurationTooLong      = errors.New("reservation is longer than the maximum duration")
	ErrOutsideBusinessHours = errors.New("reservation is outside business hours")
	ErrInThePast            = errors.New("reservation starts in the past")

	ErrRoomNotFound        = errors.New("room not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrUnauthorized = errors.New("no authenticated user")
	ErrForbidden    = errors.New("operation not permitted")

	ErrConflict = errors.New("room is already reserved for an overlapping window")
	ErrBusy     = errors.New("room is busy, retry later")

	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError names the reservation that blocks a write.
type ConflictError struct {
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflict.Error(), e.ExistingID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func NewConflict(existingID string) error {
	return &ConflictError{ExistingID: existingID}
}

// InputError carries field-level details for ErrInvalidInput.
type InputError struct {
	Details error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidInput.Error(), e.Details)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *InputError) Unwrap() error {
	return e.Details
}

func NewInputError(details error) error {
	return &InputError{Details: details}
}
