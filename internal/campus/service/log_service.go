package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// MaxLogBatch caps how many hardware logs one SyncLogs call may carry.
const MaxLogBatch = 500

var ErrBatchTooLarge = fmt.Errorf("log batch exceeds %d entries", MaxLogBatch)

// LogService ingests access logs captured by hardware nodes.
type LogService struct {
	logs      store.AccessLogStore
	directory store.DirectoryStore
}

func NewLogService(logs store.AccessLogStore, dir store.DirectoryStore) *LogService {
	return &LogService{logs: logs, directory: dir}
}

// Ingest appends every valid entry of the batch. Entries carrying an id
// the device already synced are counted as duplicates, so a node may
// safely resend a batch whose acknowledgment it never received.
func (s *LogService) Ingest(ctx context.Context, dev store.DeviceRecord, logs []types.HardwareLog) (types.SyncLogsResponse, error) {
	if len(logs) > MaxLogBatch {
		return types.SyncLogsResponse{}, ErrBatchTooLarge
	}

	now := time.Now().UTC()
	resp := types.SyncLogsResponse{OK: true}

	for _, l := range logs {
		rec, ok := s.toRecord(ctx, dev, l, now)
		if !ok {
			resp.Rejected++
			continue
		}
		inserted, err := s.logs.AppendLog(ctx, rec)
		if err != nil {
			return types.SyncLogsResponse{}, err
		}
		if inserted {
			resp.Accepted++
		} else {
			resp.Duplicates++
		}
	}

	resp.ServerTime = now.Format(time.RFC3339Nano)
	return resp, nil
}

func (s *LogService) toRecord(ctx context.Context, dev store.DeviceRecord, l types.HardwareLog, now time.Time) (store.AccessLogRecord, bool) {
	cardUID := strings.TrimSpace(l.CardUID)
	if cardUID == "" {
		return store.AccessLogRecord{}, false
	}

	action := l.Action
	if action == "" {
		action = types.ActionOpenGate
	}
	if !action.Valid() {
		return store.AccessLogRecord{}, false
	}

	result := strings.TrimSpace(l.Result)
	if result == "" {
		result = "unknown"
	}

	// Node clocks are untrusted; without a usable one fall back to receipt
	// time and say so.
	ts, tsType := now, types.TimestampServer
	if t := parseDeviceTimestamp(l.Timestamp); t != nil {
		ts, tsType = *t, types.TimestampLocal
	}

	// Unknown cards are still logged; the user column stays empty.
	var userID string
	if u, err := s.directory.UserByCard(ctx, cardUID); err == nil {
		userID = u.ID
	}

	return store.AccessLogRecord{
		UserID:        userID,
		RoomID:        dev.RoomID,
		ChipID:        dev.ChipID,
		Method:        types.MethodCard,
		Action:        action,
		Result:        result,
		Timestamp:     ts,
		TimestampType: tsType,
		CardUIDHash:   HashCardUID(cardUID),
		DeviceLogID:   strings.TrimSpace(l.ID),
		ReceivedAt:    now,
	}, true
}
