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

func TestAccessLogStore_AppendLog_Inserts(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewAccessLogStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	lat, lng := 51.5, -0.12
	inserted, err := ls.AppendLog(ctx, store.AccessLogRecord{
		UserID:        "u-1",
		RoomID:        "room-101",
		Method:        types.MethodPhone,
		Action:        types.ActionAttendance,
		Result:        "recorded",
		Timestamp:     time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		TimestampType: types.TimestampLocal,
		Lat:           &lat,
		Lng:           &lng,
		SubmissionID:  "sub-1",
		EvidenceJSON:  `{"hasInternet":false}`,
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	var (
		method, tsType string
		gotLat         float64
	)
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT method, timestamp_type, lat FROM access_logs WHERE submission_id = ?`, "sub-1",
	).Scan(&method, &tsType, &gotLat))
	assert.Equal(t, "phone", method)
	assert.Equal(t, "local", tsType)
	assert.InDelta(t, 51.5, gotLat, 1e-9)
}

func TestAccessLogStore_DuplicateSubmissionIgnored(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewAccessLogStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := store.AccessLogRecord{
		UserID:        "u-1",
		RoomID:        "room-101",
		Method:        types.MethodPhone,
		Action:        types.ActionAttendance,
		Result:        "recorded",
		TimestampType: types.TimestampServer,
		SubmissionID:  "sub-1",
	}
	first, err := ls.AppendLog(ctx, rec)
	require.NoError(t, err)
	second, err := ls.AppendLog(ctx, rec)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_logs`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAccessLogStore_DeviceLogIDScopedToChip(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewAccessLogStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := store.AccessLogRecord{
		Method:        types.MethodCard,
		Action:        types.ActionOpenGate,
		Result:        "granted",
		TimestampType: types.TimestampLocal,
		DeviceLogID:   "42",
	}

	a := base
	a.ChipID = "chip-a"
	b := base
	b.ChipID = "chip-b"

	for _, rec := range []store.AccessLogRecord{a, b} {
		ok, err := ls.AppendLog(ctx, rec)
		require.NoError(t, err)
		assert.True(t, ok, "chip %s", rec.ChipID)
	}

	again, err := ls.AppendLog(ctx, a)
	require.NoError(t, err)
	assert.False(t, again, "same chip and log id is a replay")
}
