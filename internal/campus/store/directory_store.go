package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

type UserRecord struct {
	ID           string
	Role         types.Role
	Status       string
	CardUID      string
	DeviceID     string
	AllowedRooms []string
}

// DirectoryStore is the read side of users and rooms plus the one write
// the attendance path performs (lazy device binding).
type DirectoryStore interface {
	GetUser(ctx context.Context, userID string) (UserRecord, error)
	UserByCard(ctx context.Context, cardUID string) (UserRecord, error)
	// UsersForRoom lists active users carrying a card who are allowed in
	// roomID.
	UsersForRoom(ctx context.Context, roomID string) ([]UserRecord, error)
	// BindUserDevice sets the user's device id only when it is unset.
	// It returns the device id stored after the call.
	BindUserDevice(ctx context.Context, userID, deviceID string) (string, error)
}
