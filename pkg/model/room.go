package model

import "time"

const DefaultRoomColor = "#3174ad"

type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=1000"`
	Color       string    `json:"color" bson:"color" validate:"omitempty,max=32"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type RoomUpdate struct {
	Name        string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=1000"`
	Color       string  `json:"color,omitempty" validate:"omitempty,max=32"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// TimeSlot is a free interval of a room.
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
