// Package access decides what an actor may do with reservations and rooms.
//
// Reading and modifying a reservation follow the same rule: its owner or
// an administrator.
package access

import "roombook/pkg/model"

func CanRead(actor model.Actor, r *model.Reservation) bool {
	return actor.IsAdmin() || (actor.UserID != "" && actor.UserID == r.OwnerID)
}

func CanWrite(actor model.Actor, r *model.Reservation) bool {
	return CanRead(actor, r)
}

func CanCreate(actor model.Actor) bool {
	return actor.UserID != ""
}

// CanCreateFor reports whether actor may create a reservation owned by
// ownerID.
func CanCreateFor(actor model.Actor, ownerID string) bool {
	return actor.IsAdmin() || ownerID == actor.UserID
}

func CanManageRooms(actor model.Actor) bool {
	return actor.IsAdmin()
}

// CanListFor reports whether actor may list reservations of ownerID. An
// empty ownerID means every owner.
func CanListFor(actor model.Actor, ownerID string) bool {
	return actor.IsAdmin() || (ownerID != "" && ownerID == actor.UserID)
}
