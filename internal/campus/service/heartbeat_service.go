package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// maxFirmwareLen keeps junk firmware strings out of the device table.
const maxFirmwareLen = 64

type HeartbeatService struct {
	history store.HeartbeatStore
	devices store.DeviceStore
	logger  *zap.Logger
}

func NewHeartbeatService(history store.HeartbeatStore, devices store.DeviceStore, logger *zap.Logger) *HeartbeatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatService{history: history, devices: devices, logger: logger}
}

// Record refreshes last_seen, flips the device online and stores the
// reported firmware. It is the only writer of those fields.
func (s *HeartbeatService) Record(ctx context.Context, dev store.DeviceRecord, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	now := time.Now().UTC()

	fw := strings.TrimSpace(req.Firmware)
	if len(fw) > maxFirmwareLen {
		fw = fw[:maxFirmwareLen]
	}

	if err := s.devices.MarkHeartbeat(ctx, dev.ChipID, fw, now); err != nil {
		return types.HeartbeatResponse{}, err
	}

	// History is best effort; the snapshot above is what liveness reads.
	if err := s.history.AppendHeartbeat(ctx, store.HeartbeatRecord{
		ChipID:     dev.ChipID,
		ReceivedAt: now,
		Firmware:   fw,
	}); err != nil {
		s.logger.Warn("heartbeat history append failed",
			zap.String("chip_id", dev.ChipID),
			zap.Error(err),
		)
	}

	return types.HeartbeatResponse{
		OK:         true,
		ChipID:     dev.ChipID,
		Status:     types.DeviceOnline,
		ServerTime: now.Format(time.RFC3339Nano),
	}, nil
}
