package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SeedDevOptions struct {
	// ChipIDs are pre-registered and bound to the starter room. Tokens are
	// still provisioned separately.
	ChipIDs []string
}

// SeedDev loads a small directory for local runs: two rooms, a user of
// each role and optional devices. Safe to run repeatedly.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rooms := []struct{ id, name, lock string }{
		{"room-101", "Lecture Hall 101", "locked"},
		{"room-202", "Staff Lab 202", "staff_only"},
	}
	for _, r := range rooms {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO rooms(room_id, name, lock_status, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?);`, r.id, r.name, r.lock, now, now); err != nil {
			return fmt.Errorf("seed room %s: %w", r.id, err)
		}
	}

	users := []struct {
		id, name, role, card string
		rooms                []string
	}{
		{"u-student", "Dev Student", "student", "04A1B2C3", []string{"room-101"}},
		{"u-teacher", "Dev Teacher", "teacher", "04D4E5F6", []string{"room-101", "room-202"}},
		{"u-staff", "Dev Staff", "staff", "04112233", []string{"room-202"}},
		{"u-admin", "Dev Admin", "admin", "", nil},
	}
	for _, u := range users {
		var card any
		if u.card != "" {
			card = u.card
		}
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO users(user_id, display_name, role, card_uid, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`, u.id, u.name, u.role, card, now, now); err != nil {
			return fmt.Errorf("seed user %s: %w", u.id, err)
		}
		for _, room := range u.rooms {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_rooms(user_id, room_id) VALUES (?, ?);`, u.id, room); err != nil {
				return fmt.Errorf("seed user_rooms %s/%s: %w", u.id, room, err)
			}
		}
	}

	for _, chip := range opt.ChipIDs {
		chip = strings.TrimSpace(chip)
		if chip == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO devices(chip_id, device_id, room_id, status, created_at_ms, updated_at_ms)
VALUES (?, ?, 'room-101', 'pending', ?, ?)
ON CONFLICT(chip_id) DO UPDATE SET
  room_id = COALESCE(devices.room_id, excluded.room_id),
  updated_at_ms = excluded.updated_at_ms;`, chip, uuid.NewString(), now, now); err != nil {
			return fmt.Errorf("seed device %s: %w", chip, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}
