// Package conflict finds reservations that would double-book a room.
package conflict

import (
	"context"
	"fmt"

	"roombook/pkg/model"
	"roombook/pkg/timewindow"
)

// OverlapFinder is the read FindConflict needs. Repositories implement it.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, roomID string, w timewindow.Window) ([]*model.Reservation, error)
}

// FindConflict returns the id of the earliest reservation on roomID whose
// window overlaps w, ignoring excludeID. It returns "" when the room is free.
// Callers hold the room lock so the answer stays true until they write.
func FindConflict(ctx context.Context, source OverlapFinder, roomID string, w timewindow.Window, excludeID string) (string, error) {
	candidates, err := source.FindOverlapping(ctx, roomID, w)
	if err != nil {
		return "", fmt.Errorf("failed to load reservations for room %s: %w", roomID, err)
	}
	return Detect(candidates, roomID, w, excludeID), nil
}

// Detect is FindConflict over an in-memory list.
func Detect(existing []*model.Reservation, roomID string, w timewindow.Window, excludeID string) string {
	var first *model.Reservation
	for _, r := range existing {
		if r.RoomID != roomID || r.ID == excludeID {
			continue
		}
		if !timewindow.Overlaps(r.Window(), w) {
			continue
		}
		if first == nil || r.StartTime.Before(first.StartTime) {
			first = r
		}
	}
	if first == nil {
		return ""
	}
	return first.ID
}
