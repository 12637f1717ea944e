package model

import "time"

// RoomLock is a lease on a room. While held, no other request may run a
// conflict check and write for that room.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func RoomLockID(roomID string) string {
	return "room_lock_" + roomID
}
