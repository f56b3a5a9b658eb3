package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	sqlitestore "github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/sqlite"
)

func TestHeartbeatStore_AppendOnly(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	hs := sqlitestore.NewHeartbeatStore(conn, w)
	ctx := context.Background()

	_, _, err := ds.RegisterDevice(ctx, "chip-001", "dev-a", time.Now())
	require.NoError(t, err)

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{
			ChipID:     "chip-001",
			ReceivedAt: base.Add(time.Duration(i) * 10 * time.Second),
			Firmware:   "0.1.0",
		}))
	}

	var count int
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM device_heartbeats WHERE chip_id = ?`, "chip-001",
	).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestHeartbeatStore_AppendHeartbeat_EmptyChipIgnored(t *testing.T) {
	conn := openTestDB(t)
	hs := sqlitestore.NewHeartbeatStore(conn, newTestWriter(t, conn))

	require.NoError(t, hs.AppendHeartbeat(context.Background(), store.HeartbeatRecord{ChipID: "  "}))
}

func TestHeartbeatStore_PruneOlderThan(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	hs := sqlitestore.NewHeartbeatStore(conn, w)
	ctx := context.Background()

	_, _, err := ds.RegisterDevice(ctx, "chip-001", "dev-a", time.Now())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{ChipID: "chip-001", ReceivedAt: now.AddDate(0, 0, -40)}))
	require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{ChipID: "chip-001", ReceivedAt: now.AddDate(0, 0, -31)}))
	require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{ChipID: "chip-001", ReceivedAt: now.AddDate(0, 0, -1)}))

	deleted, err := hs.PruneOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	deleted, err = hs.PruneOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
