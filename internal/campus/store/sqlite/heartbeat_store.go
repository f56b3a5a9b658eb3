package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	dbpkg "github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

type HeartbeatStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewHeartbeatStore(db *sql.DB, writer *dbpkg.Worker) *HeartbeatStore {
	return &HeartbeatStore{db: db, writer: writer}
}

// AppendHeartbeat records one heartbeat in the history table. The device
// snapshot (last_seen, status) is updated by DeviceStore.MarkHeartbeat.
func (s *HeartbeatStore) AppendHeartbeat(ctx context.Context, rec store.HeartbeatRecord) error {
	chipID := strings.TrimSpace(rec.ChipID)
	if chipID == "" {
		return nil
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	recvMs := rec.ReceivedAt.UTC().UnixMilli()
	fw := strings.TrimSpace(rec.Firmware)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO device_heartbeats(chip_id, received_at_ms, fw_version)
VALUES (?, ?, ?);
`, chipID, recvMs, fw); err != nil {
			return fmt.Errorf("AppendHeartbeat: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes heartbeat rows received before cutoff and
// returns how many were removed.
func (s *HeartbeatStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM device_heartbeats
WHERE received_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
