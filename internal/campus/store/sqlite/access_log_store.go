package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	dbpkg "github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

type AccessLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessLogStore(db *sql.DB, writer *dbpkg.Worker) *AccessLogStore {
	return &AccessLogStore{db: db, writer: writer}
}

// AppendLog inserts rec, relying on the partial unique indexes over
// submission_id and (chip_id, device_log_id) to drop replays.
func (s *AccessLogStore) AppendLog(ctx context.Context, rec store.AccessLogRecord) (bool, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = rec.ReceivedAt
	}

	var inserted bool
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO access_logs(
  user_id, room_id, chip_id, method, action, result,
  timestamp_ms, timestamp_type, lat, lng, card_uid_hash,
  submission_id, device_log_id, evidence_json, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING;
`,
			rec.UserID, rec.RoomID, rec.ChipID, string(rec.Method), string(rec.Action), rec.Result,
			rec.Timestamp.UTC().UnixMilli(), string(rec.TimestampType),
			nullFloat(rec.Lat), nullFloat(rec.Lng), nullBytes(rec.CardUIDHash),
			nullString(rec.SubmissionID), nullString(rec.DeviceLogID), nullString(rec.EvidenceJSON),
			rec.ReceivedAt.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("AppendLog insert: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted = n == 1
		return nil
	})
	return inserted, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
