package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

func count(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestOpenMemory_MigratesOnce(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMemory(ctx, "migrate_once")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, db.Migrate(ctx, conn), "re-running migrations is a no-op")
	assert.Equal(t, 1, count(t, conn, "schema_migrations"))
	assert.Zero(t, count(t, conn, "access_logs"))
}

func TestSeedDev_Idempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMemory(ctx, "seed_dev")
	require.NoError(t, err)
	defer conn.Close()

	opt := db.SeedDevOptions{ChipIDs: []string{"dev-chip-001", " "}}
	require.NoError(t, db.SeedDev(ctx, conn, opt))
	require.NoError(t, db.SeedDev(ctx, conn, opt))

	assert.Equal(t, 2, count(t, conn, "rooms"))
	assert.Equal(t, 4, count(t, conn, "users"))
	assert.Equal(t, 1, count(t, conn, "devices"))

	var room string
	require.NoError(t, conn.QueryRow(`SELECT room_id FROM devices WHERE chip_id = 'dev-chip-001'`).Scan(&room))
	assert.Equal(t, "room-101", room)
}

func TestWorker_RejectsAfterClose(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMemory(ctx, "worker_close")
	require.NoError(t, err)
	defer conn.Close()

	w := db.NewWorker(conn)
	require.NoError(t, w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO rooms(room_id, name, created_at_ms, updated_at_ms) VALUES ('r', 'R', 0, 0)`)
		return err
	}))

	w.Close()
	w.Close()

	err = w.Do(ctx, func(context.Context, *sql.Tx) error { return nil })
	assert.ErrorIs(t, err, db.ErrWorkerClosed)
	assert.Equal(t, 1, count(t, conn, "rooms"))
}
