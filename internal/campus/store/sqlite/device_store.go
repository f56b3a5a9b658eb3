package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
	dbpkg "github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

type DeviceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDeviceStore(db *sql.DB, writer *dbpkg.Worker) *DeviceStore {
	return &DeviceStore{db: db, writer: writer}
}

// RegisterDevice is an idempotent upsert keyed on chip_id. A second call
// for the same chip returns the row created by the first one.
func (s *DeviceStore) RegisterDevice(ctx context.Context, chipID, newID string, t time.Time) (store.DeviceRecord, bool, error) {
	ms := t.UTC().UnixMilli()

	var (
		rec     store.DeviceRecord
		created bool
	)
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		created, err = ensureDevice(ctx, tx, chipID, newID, ms)
		if err != nil {
			return err
		}
		rec, err = scanDevice(tx.QueryRowContext(ctx, selectDevice, chipID))
		return err
	})
	if err != nil {
		return store.DeviceRecord{}, false, fmt.Errorf("RegisterDevice: %w", err)
	}
	return rec, created, nil
}

func (s *DeviceStore) GetDevice(ctx context.Context, chipID string) (store.DeviceRecord, error) {
	rec, err := scanDevice(s.db.QueryRowContext(ctx, selectDevice, chipID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.DeviceRecord{}, err
		}
		return store.DeviceRecord{}, fmt.Errorf("GetDevice: %w", err)
	}
	return rec, nil
}

func (s *DeviceStore) MarkHeartbeat(ctx context.Context, chipID, firmware string, t time.Time) error {
	ms := t.UTC().UnixMilli()
	return s.exec(ctx, "MarkHeartbeat", `
UPDATE devices
SET last_seen_at_ms  = ?,
    status           = 'online',
    firmware_version = CASE WHEN ? = '' THEN firmware_version ELSE ? END,
    updated_at_ms    = ?
WHERE chip_id = ?;
`, ms, firmware, firmware, ms, chipID)
}

func (s *DeviceStore) SetTokenHash(ctx context.Context, chipID string, hash []byte) error {
	ms := time.Now().UTC().UnixMilli()
	return s.exec(ctx, "SetTokenHash", `
UPDATE devices
SET token_hash = ?, revoked_at_ms = NULL, updated_at_ms = ?
WHERE chip_id = ?;
`, hash, ms, chipID)
}

func (s *DeviceStore) BindRoom(ctx context.Context, chipID, roomID string) error {
	ms := time.Now().UTC().UnixMilli()
	return s.exec(ctx, "BindRoom", `
UPDATE devices SET room_id = ?, updated_at_ms = ? WHERE chip_id = ?;
`, roomID, ms, chipID)
}

func (s *DeviceStore) Revoke(ctx context.Context, chipID string, t time.Time) error {
	ms := t.UTC().UnixMilli()
	return s.exec(ctx, "Revoke", `
UPDATE devices SET revoked_at_ms = ?, updated_at_ms = ? WHERE chip_id = ?;
`, ms, ms, chipID)
}

// exec runs a single-row update and maps "no such chip" to ErrNotFound.
func (s *DeviceStore) exec(ctx context.Context, op, query string, args ...any) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

const selectDevice = `
SELECT chip_id, device_id, COALESCE(room_id, ''), firmware_version, status,
       token_hash, last_seen_at_ms, revoked_at_ms, created_at_ms
FROM devices
WHERE chip_id = ?;
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (store.DeviceRecord, error) {
	var (
		rec       store.DeviceRecord
		status    string
		lastSeen  sql.NullInt64
		revoked   sql.NullInt64
		createdMs int64
	)
	err := row.Scan(&rec.ChipID, &rec.ID, &rec.RoomID, &rec.FirmwareVersion, &status,
		&rec.TokenHash, &lastSeen, &revoked, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DeviceRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.DeviceRecord{}, err
	}

	rec.Status = types.DeviceStatus(status)
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	if lastSeen.Valid {
		rec.LastSeen = time.UnixMilli(lastSeen.Int64).UTC()
	}
	if revoked.Valid {
		t := time.UnixMilli(revoked.Int64).UTC()
		rec.RevokedAt = &t
	}
	return rec, nil
}
