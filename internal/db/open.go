package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// pragmas are applied per connection through the modernc.org/sqlite DSN.
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

type Config struct {
	Path string // e.g. "./data/campus.db"
	Env  string // "dev" | "prod"

	// SkipMigrate opens the file without applying the embedded schema.
	// The client-side key-value store uses this; it owns its own table.
	SkipMigrate bool
}

// FileDSN builds the DSN for an on-disk database.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?%s", path, pragmas)
}

// MemoryDSN builds a DSN for a named shared-cache in-memory database.
// The name keeps parallel tests isolated from each other.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", name, pragmas)
}

func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/campus.db"
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	return openDSN(ctx, FileDSN(cfg.Path), !cfg.SkipMigrate)
}

// OpenMemory opens a migrated in-memory database. Used by tests and by
// `campus-gateway serve --ephemeral`.
func OpenMemory(ctx context.Context, name string) (*sql.DB, error) {
	return openDSN(ctx, MemoryDSN(name), true)
}

func openDSN(ctx context.Context, dsn string, migrate bool) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// Single connection: SQLite allows one writer and the shared-cache
	// in-memory variant disappears when the last connection closes.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if migrate {
		if err := Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}
