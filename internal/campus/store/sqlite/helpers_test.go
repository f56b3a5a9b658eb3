package sqlite_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

// openTestDB returns a migrated in-memory SQLite connection that lives for
// the duration of the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := "test_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenMemory(context.Background(), name)
	require.NoError(t, err, "open in-memory db")

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed with the test.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedUser inserts a user and its allowed rooms, creating rooms on demand.
func seedUser(t *testing.T, conn *sql.DB, id, role, status, card string, rooms ...string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().UnixMilli()

	var cardArg any
	if card != "" {
		cardArg = card
	}
	_, err := conn.ExecContext(ctx, `
INSERT INTO users(user_id, role, status, card_uid, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`, id, role, status, cardArg, now, now)
	require.NoError(t, err, "insert user %s", id)

	for _, r := range rooms {
		seedRoom(t, conn, r)
		_, err := conn.ExecContext(ctx,
			`INSERT INTO user_rooms(user_id, room_id) VALUES (?, ?);`, id, r)
		require.NoError(t, err, "insert user_room %s/%s", id, r)
	}
}

func seedRoom(t *testing.T, conn *sql.DB, id string) {
	t.Helper()
	now := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT OR IGNORE INTO rooms(room_id, name, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?);`, id, id, now, now)
	require.NoError(t, err, "insert room %s", id)
}
