package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
  key            TEXT PRIMARY KEY,
  value          BLOB NOT NULL,
  updated_at_ms  INTEGER NOT NULL
);`

// SQLiteStore keeps every key in one table of a local SQLite file. Writes
// go through a db.Worker so each Set is its own transaction.
type SQLiteStore struct {
	conn   *sql.DB
	writer *db.Worker
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("kv: sqlite store needs a path")
	}
	conn, err := db.Open(ctx, db.Config{Path: path, SkipMigrate: true})
	if err != nil {
		return nil, err
	}
	return newSQLiteStore(ctx, conn)
}

func newSQLiteStore(ctx context.Context, conn *sql.DB) (*SQLiteStore, error) {
	if _, err := conn.ExecContext(ctx, kvSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kv: create table: %w", err)
	}
	return &SQLiteStore{conn: conn, writer: db.NewWorker(conn)}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	var v []byte
	err := s.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?;", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO kv(key, value, updated_at_ms) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms;`,
			key, value, time.Now().UTC().UnixMilli())
		return err
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?;", key)
		return err
	})
}

func (s *SQLiteStore) Close() error {
	s.writer.Close()
	return s.conn.Close()
}
