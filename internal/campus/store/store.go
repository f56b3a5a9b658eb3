package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups keyed on an id that has no row.
var ErrNotFound = errors.New("not found")

type HeartbeatRecord struct {
	ChipID     string
	ReceivedAt time.Time
	Firmware   string
}

type HeartbeatStore interface {
	AppendHeartbeat(ctx context.Context, rec HeartbeatRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
