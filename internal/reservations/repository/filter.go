package repository

import (
	"sort"

	"roombook/pkg/model"
)

func matchesFilter(r *model.Reservation, f model.ReservationFilter) bool {
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	switch f.Scope {
	case model.ScopeUpcoming:
		return !r.StartTime.Before(f.Now)
	case model.ScopePast:
		return r.StartTime.Before(f.Now)
	}
	return true
}

// sortForScope orders upcoming and all ascending by start, past descending.
// Ties are broken by id.
func sortForScope(items []*model.Reservation, scope model.ReservationScope) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.StartTime.Equal(b.StartTime) {
			if scope == model.ScopePast {
				return a.StartTime.After(b.StartTime)
			}
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
}

func paginate(items []*model.Reservation, limit int, offset int64) []*model.Reservation {
	if offset > 0 {
		if offset >= int64(len(items)) {
			return []*model.Reservation{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
