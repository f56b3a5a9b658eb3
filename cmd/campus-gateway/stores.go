package main

import (
	"context"
	"database/sql"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/sqlite"
	"github.com/BrandonDHaskell/Portunus/campus/internal/db"
)

// backend is the opened database plus every store built on it.
type backend struct {
	conn   *sql.DB
	writer *db.Worker

	devices    *sqlite.DeviceStore
	heartbeats *sqlite.HeartbeatStore
	logs       *sqlite.AccessLogStore
	directory  *sqlite.DirectoryStore
}

// openBackend opens the configured database file, or a seeded in-memory
// one when ephemeral is set.
func openBackend(ctx context.Context, ephemeral bool, seedChips []string) (*backend, error) {
	var (
		conn *sql.DB
		err  error
	)
	if ephemeral {
		conn, err = db.OpenMemory(ctx, "campus-ephemeral")
	} else {
		conn, err = db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	}
	if err != nil {
		return nil, err
	}

	if ephemeral || cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{ChipIDs: seedChips}); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	w := db.NewWorker(conn)
	return &backend{
		conn:       conn,
		writer:     w,
		devices:    sqlite.NewDeviceStore(conn, w),
		heartbeats: sqlite.NewHeartbeatStore(conn, w),
		logs:       sqlite.NewAccessLogStore(conn, w),
		directory:  sqlite.NewDirectoryStore(conn, w),
	}, nil
}

func (b *backend) registry() *service.DeviceRegistry {
	return service.NewDeviceRegistry(b.devices)
}

func (b *backend) Close() error {
	b.writer.Close()
	return b.conn.Close()
}
