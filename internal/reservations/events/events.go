// Package events publishes committed reservation and room changes.
package events

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/kafka"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/google/uuid"
)

type Type string

const (
	ReservationCreated Type = "reservation.created"
	ReservationUpdated Type = "reservation.updated"
	ReservationDeleted Type = "reservation.deleted"
	RoomCreated        Type = "room.created"
	RoomUpdated        Type = "room.updated"
	RoomDeleted        Type = "room.deleted"
)

const (
	SchemaVersion = "1"
	Source        = "reservations"
)

type Event struct {
	ID          string             `json:"id"`
	Type        Type               `json:"type"`
	RoomID      string             `json:"room_id"`
	ActorID     string             `json:"actor_id"`
	OccurredAt  time.Time          `json:"occurred_at"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Room        *model.Room        `json:"room,omitempty"`
}

func NewReservationEvent(t Type, actor model.Actor, r *model.Reservation) Event {
	snapshot := *r
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		RoomID:      r.RoomID,
		ActorID:     actor.UserID,
		OccurredAt:  time.Now().UTC(),
		Reservation: &snapshot,
	}
}

func NewRoomEvent(t Type, actor model.Actor, room *model.Room) Event {
	snapshot := *room
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		RoomID:     room.ID,
		ActorID:    actor.UserID,
		OccurredAt: time.Now().UTC(),
		Room:       &snapshot,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// MessagePublisher is the part of *kafka.Producer the publisher uses.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer MessagePublisher
}

func NewKafkaPublisher(producer MessagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish keys the message by room id so a room's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := Encode(ctx, event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func Encode(ctx context.Context, event Event) (kafka.Message, error) {
	msg, err := kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return msg, nil
}

// Decode parses a message written by KafkaPublisher.
func Decode(msg kafka.Message) (Event, error) {
	var event Event
	if err := msg.DecodeValue(&event); err != nil {
		return Event{}, kafka.NewPermanentError("malformed event payload", err)
	}
	if event.Type == "" {
		event.Type = Type(msg.GetEventType())
	}
	if event.Type == "" {
		return Event{}, kafka.NewPermanentError("event without type", nil)
	}
	return event, nil
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
