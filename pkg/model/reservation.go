package model

import (
	"time"

	"roombook/pkg/timewindow"
)

type Reservation struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title" validate:"required,min=1,max=200"`
	RoomID    string    `json:"room_id" bson:"room_id" validate:"required"`
	OwnerID   string    `json:"owner_id" bson:"owner_id" validate:"required"`
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (r *Reservation) Window() timewindow.Window {
	return timewindow.New(r.StartTime, r.EndTime)
}

// ReservationUpdate is a partial update. Nil or empty fields are left untouched.
// ID and OwnerID are not patchable.
type ReservationUpdate struct {
	Title     string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	RoomID    string     `json:"room_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ReservationScope string

const (
	ScopeUpcoming ReservationScope = "upcoming"
	ScopePast     ReservationScope = "past"
	ScopeAll      ReservationScope = "all"
)

func (s ReservationScope) Valid() bool {
	switch s {
	case ScopeUpcoming, ScopePast, ScopeAll:
		return true
	}
	return false
}

type ReservationFilter struct {
	RoomID  string
	OwnerID string
	Scope   ReservationScope
	Now     time.Time
	Limit   int
	Offset  int64
}
