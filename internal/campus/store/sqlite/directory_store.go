package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
	dbpkg "github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

type DirectoryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDirectoryStore(db *sql.DB, writer *dbpkg.Worker) *DirectoryStore {
	return &DirectoryStore{db: db, writer: writer}
}

const selectUser = `
SELECT u.user_id, u.role, u.status, COALESCE(u.card_uid, ''), COALESCE(u.device_id, ''),
       COALESCE((SELECT group_concat(room_id, ',') FROM user_rooms r WHERE r.user_id = u.user_id), '')
FROM users u
`

func (s *DirectoryStore) GetUser(ctx context.Context, userID string) (store.UserRecord, error) {
	return s.queryUser(ctx, selectUser+"WHERE u.user_id = ?;", userID)
}

func (s *DirectoryStore) UserByCard(ctx context.Context, cardUID string) (store.UserRecord, error) {
	if strings.TrimSpace(cardUID) == "" {
		return store.UserRecord{}, store.ErrNotFound
	}
	return s.queryUser(ctx, selectUser+"WHERE u.card_uid = ?;", cardUID)
}

func (s *DirectoryStore) UsersForRoom(ctx context.Context, roomID string) ([]store.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+`
WHERE u.status = 'active'
  AND u.card_uid IS NOT NULL AND u.card_uid <> ''
  AND EXISTS (SELECT 1 FROM user_rooms r WHERE r.user_id = u.user_id AND r.room_id = ?)
ORDER BY u.user_id;
`, roomID)
	if err != nil {
		return nil, fmt.Errorf("UsersForRoom query: %w", err)
	}
	defer rows.Close()

	var out []store.UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("UsersForRoom scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *DirectoryStore) BindUserDevice(ctx context.Context, userID, deviceID string) (string, error) {
	ms := time.Now().UTC().UnixMilli()

	var bound string
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE users
SET device_id = ?, updated_at_ms = ?
WHERE user_id = ? AND (device_id IS NULL OR device_id = '');
`, deviceID, ms, userID); err != nil {
			return fmt.Errorf("BindUserDevice update: %w", err)
		}
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(device_id, '') FROM users WHERE user_id = ?;`, userID,
		).Scan(&bound)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	})
	return bound, err
}

func (s *DirectoryStore) queryUser(ctx context.Context, query string, arg string) (store.UserRecord, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return store.UserRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.UserRecord{}, fmt.Errorf("user query: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (store.UserRecord, error) {
	var (
		u     store.UserRecord
		role  string
		rooms string
	)
	if err := row.Scan(&u.ID, &role, &u.Status, &u.CardUID, &u.DeviceID, &rooms); err != nil {
		return store.UserRecord{}, err
	}
	u.Role = types.Role(role)
	if rooms != "" {
		u.AllowedRooms = strings.Split(rooms, ",")
	}
	return u, nil
}
