package errors

import (
	"errors"
	"fmt"
	"testing"

	"roombook/pkg/timewindow"
)

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("create reservation: %w", NewConflict("res-42"))

	if !errors.Is(err, ErrConflict) {
		t.Fatal("wrapped conflict should match ErrConflict")
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatal("errors.As should find ConflictError")
	}
	if conflict.ExistingID != "res-42" {
		t.Errorf("ExistingID = %q, want res-42", conflict.ExistingID)
	}
	if errors.Is(err, ErrBusy) {
		t.Error("conflict must not match ErrBusy")
	}
}

func TestInputError(t *testing.T) {
	details := errors.New("title: required")
	err := NewInputError(details)

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("input error should match ErrInvalidInput")
	}
	if !errors.Is(err, details) {
		t.Error("input error should unwrap to its details")
	}
}

func TestInvalidWindowIsShared(t *testing.T) {
	err := timewindow.Validate(timewindow.Window{})
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("timewindow errors should match ErrInvalidWindow, got %v", err)
	}
}
