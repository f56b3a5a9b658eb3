package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// ensureDevice inserts a pending devices row for chipID unless one exists.
// It reports whether a row was inserted. Must run inside a transaction.
func ensureDevice(ctx context.Context, tx *sql.Tx, chipID, deviceID string, nowMs int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `
INSERT INTO devices(
  chip_id, device_id, status, created_at_ms, updated_at_ms
) VALUES (?, ?, 'pending', ?, ?)
ON CONFLICT(chip_id) DO NOTHING;
`, chipID, deviceID, nowMs, nowMs)
	if err != nil {
		return false, fmt.Errorf("ensureDevice %s: %w", chipID, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
