package service

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// ConfigService serves the device-facing configuration. Update swaps the
// whole value atomically so readers never see a half-applied reload.
type ConfigService struct {
	current atomic.Pointer[types.DeviceConfig]
}

func NewConfigService(cfg types.DeviceConfig) *ConfigService {
	s := &ConfigService{}
	s.Update(cfg)
	return s
}

func (s *ConfigService) Update(cfg types.DeviceConfig) {
	cfg.Features = maps.Clone(cfg.Features)
	s.current.Store(&cfg)
}

func (s *ConfigService) Current() types.DeviceConfig {
	cfg := *s.current.Load()
	cfg.Features = maps.Clone(cfg.Features)
	return cfg
}

func (s *ConfigService) ForDevice(_ context.Context, dev store.DeviceRecord) (types.ConfigResponse, error) {
	return types.ConfigResponse{
		ChipID:     dev.ChipID,
		RoomID:     dev.RoomID,
		Config:     s.Current(),
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
