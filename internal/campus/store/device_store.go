package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

type DeviceRecord struct {
	ChipID          string
	ID              string
	RoomID          string
	FirmwareVersion string
	Status          types.DeviceStatus
	TokenHash       []byte
	LastSeen        time.Time
	RevokedAt       *time.Time
	CreatedAt       time.Time
}

// Revoked reports whether an operator has withdrawn the device's trust.
func (d DeviceRecord) Revoked() bool { return d.RevokedAt != nil }

type DeviceStore interface {
	// RegisterDevice inserts a pending device for chipID unless one already
	// exists. It returns the stored record and whether it was created.
	RegisterDevice(ctx context.Context, chipID, newID string, t time.Time) (DeviceRecord, bool, error)
	GetDevice(ctx context.Context, chipID string) (DeviceRecord, error)
	// MarkHeartbeat sets last_seen, status=online and firmware in place.
	MarkHeartbeat(ctx context.Context, chipID, firmware string, t time.Time) error
	SetTokenHash(ctx context.Context, chipID string, hash []byte) error
	BindRoom(ctx context.Context, chipID, roomID string) error
	Revoke(ctx context.Context, chipID string, t time.Time) error
}
