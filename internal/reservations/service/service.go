// Package service owns the reservation and room collections. Every write
// runs under the room locks it touches and inside a repository transaction.
package service

import (
	"context"
	"time"

	"roombook/internal/reservations/events"
	"roombook/pkg/config"
)

const publishTimeout = 5 * time.Second

// normalizeTime drops precision MongoDB cannot store so that values read
// back compare equal to the ones written.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// publish is best effort. The change is already committed.
func publish(ctx context.Context, cfg *config.Config, publisher events.Publisher, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		cfg.Log.Warn("Failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"room_id", event.RoomID,
			"error", err,
		)
	}
}
