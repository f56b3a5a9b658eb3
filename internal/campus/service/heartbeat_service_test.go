package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/memory"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

func TestHeartbeat_MarksOnlineAndStoresFirmware(t *testing.T) {
	reg, ds := newTestRegistry()
	commission(t, reg, "chip-001", "room-101")
	hs := memory.NewHeartbeatStore()
	svc := service.NewHeartbeatService(hs, ds, nil)
	ctx := context.Background()

	dev, err := ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	require.Equal(t, types.DevicePending, dev.Status)

	resp, err := svc.Record(ctx, dev, types.HeartbeatRequest{ChipID: "chip-001", Firmware: " 2.0.1 "})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, types.DeviceOnline, resp.Status)

	dev, err = ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Equal(t, types.DeviceOnline, dev.Status)
	assert.Equal(t, "2.0.1", dev.FirmwareVersion)
	assert.False(t, dev.LastSeen.IsZero())

	require.Len(t, hs.Heartbeats(), 1)
	assert.Equal(t, "2.0.1", hs.Heartbeats()[0].Firmware)
}

func TestHeartbeat_TruncatesLongFirmware(t *testing.T) {
	reg, ds := newTestRegistry()
	commission(t, reg, "chip-001", "")
	svc := service.NewHeartbeatService(memory.NewHeartbeatStore(), ds, nil)
	ctx := context.Background()

	dev, err := ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	_, err = svc.Record(ctx, dev, types.HeartbeatRequest{Firmware: strings.Repeat("9", 200)})
	require.NoError(t, err)

	dev, err = ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Len(t, dev.FirmwareVersion, 64)
}

// brokenHistory fails every append.
type brokenHistory struct{}

func (brokenHistory) AppendHeartbeat(context.Context, store.HeartbeatRecord) error {
	return errors.New("disk I/O error")
}

func (brokenHistory) PruneOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func TestHeartbeat_HistoryFailureIsLoggedNotReturned(t *testing.T) {
	reg, ds := newTestRegistry()
	commission(t, reg, "chip-001", "room-101")
	core, logs := observer.New(zapcore.WarnLevel)
	svc := service.NewHeartbeatService(brokenHistory{}, ds, zap.New(core))
	ctx := context.Background()

	dev, err := ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	resp, err := svc.Record(ctx, dev, types.HeartbeatRequest{ChipID: "chip-001"})
	require.NoError(t, err)
	assert.True(t, resp.OK)

	dev, err = ds.GetDevice(ctx, "chip-001")
	require.NoError(t, err)
	assert.Equal(t, types.DeviceOnline, dev.Status)

	entries := logs.FilterMessage("heartbeat history append failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "chip-001", entries[0].ContextMap()["chip_id"])
}
