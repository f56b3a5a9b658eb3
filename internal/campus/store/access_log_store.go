package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// AccessLogRecord is an immutable access fact. CardUIDHash holds a keyed
// BLAKE3 digest; the raw card UID is never persisted in the log.
type AccessLogRecord struct {
	UserID        string
	RoomID        string
	ChipID        string
	Method        types.Method
	Action        types.Action
	Result        string
	Timestamp     time.Time
	TimestampType types.TimestampType
	Lat           *float64
	Lng           *float64
	CardUIDHash   []byte
	SubmissionID  string // client idempotency key; empty for hardware logs
	DeviceLogID   string // hardware idempotency key, scoped to ChipID
	EvidenceJSON  string
	ReceivedAt    time.Time
}

// AccessLogStore is an append-only log.
type AccessLogStore interface {
	// AppendLog inserts rec. It returns false without error when rec
	// duplicates an existing SubmissionID or (ChipID, DeviceLogID).
	AppendLog(ctx context.Context, rec AccessLogRecord) (bool, error)
}
