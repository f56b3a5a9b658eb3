package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	sqlitestore "github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/sqlite"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

func TestDeviceStore_RegisterDevice_CreatesPending(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rec, created, err := ds.RegisterDevice(context.Background(), "chip-001", "dev-a", now)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "chip-001", rec.ChipID)
	assert.Equal(t, "dev-a", rec.ID)
	assert.Equal(t, types.DevicePending, rec.Status)
	assert.True(t, rec.CreatedAt.Equal(now))
	assert.True(t, rec.LastSeen.IsZero())
}

func TestDeviceStore_RegisterDevice_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	first, _, err := ds.RegisterDevice(ctx, "chip-001", "dev-a", time.Now())
	require.NoError(t, err)

	second, created, err := ds.RegisterDevice(ctx, "chip-001", "dev-b", time.Now())
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID, "second registration must keep the original identity")

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeviceStore_GetDevice_NotFound(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))

	_, err := ds.GetDevice(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeviceStore_MarkHeartbeat_UpdatesSnapshot(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	_, _, err := ds.RegisterDevice(ctx, "chip-001", "dev-a", time.Now())
	require.NoError(t, err)

	seen := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, ds.MarkHeartbeat(ctx, "chip-001", "1.2.0", seen))

	rec, err := ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Equal(t, types.DeviceOnline, rec.Status)
	assert.Equal(t, "1.2.0", rec.FirmwareVersion)
	assert.True(t, rec.LastSeen.Equal(seen))

	// An empty firmware string leaves the stored version alone.
	require.NoError(t, ds.MarkHeartbeat(ctx, "chip-001", "", seen.Add(time.Minute)))
	rec, err = ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", rec.FirmwareVersion)
}

func TestDeviceStore_MarkHeartbeat_UnknownChip(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))

	err := ds.MarkHeartbeat(context.Background(), "ghost", "1.0.0", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeviceStore_TokenAndRevocation(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	_, _, err := ds.RegisterDevice(ctx, "chip-001", "dev-a", time.Now())
	require.NoError(t, err)

	require.NoError(t, ds.SetTokenHash(ctx, "chip-001", []byte("hash-1")))
	require.NoError(t, ds.Revoke(ctx, "chip-001", time.Now()))

	rec, err := ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash-1"), rec.TokenHash)
	assert.True(t, rec.Revoked())

	// Re-provisioning clears the revocation.
	require.NoError(t, ds.SetTokenHash(ctx, "chip-001", []byte("hash-2")))
	rec, err = ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.False(t, rec.Revoked())
}

func TestDeviceStore_BindRoom(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()
	seedRoom(t, conn, "room-101")

	_, _, err := ds.RegisterDevice(ctx, "chip-001", "dev-a", time.Now())
	require.NoError(t, err)
	require.NoError(t, ds.BindRoom(ctx, "chip-001", "room-101"))

	rec, err := ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Equal(t, "room-101", rec.RoomID)
}
