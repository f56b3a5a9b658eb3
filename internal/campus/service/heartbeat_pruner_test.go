package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHeartbeatPruner_DisabledWhenRetentionZero(t *testing.T) {
	pruner := service.NewHeartbeatPruner(memory.NewHeartbeatStore(), service.PrunerConfig{
		RetentionDays: 0,
		IntervalHours: 1,
	}, zap.NewNop())

	pruner.Start(context.Background())
	pruner.Stop()
}

func TestHeartbeatPruner_PrunesOnStart(t *testing.T) {
	hs := memory.NewHeartbeatStore()
	ctx := context.Background()

	require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{
		ChipID:     "chip-old",
		ReceivedAt: time.Now().UTC().AddDate(0, 0, -40),
	}))
	require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{
		ChipID:     "chip-recent",
		ReceivedAt: time.Now().UTC().AddDate(0, 0, -1),
	}))

	pruner := service.NewHeartbeatPruner(hs, service.PrunerConfig{
		RetentionDays: 30,
		IntervalHours: 1,
	}, zap.NewNop())
	pruner.Start(ctx)
	defer pruner.Stop()

	require.Eventually(t, func() bool { return len(hs.Heartbeats()) == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "chip-recent", hs.Heartbeats()[0].ChipID)
}

func TestHeartbeatPruner_StopIsIdempotent(t *testing.T) {
	pruner := service.NewHeartbeatPruner(memory.NewHeartbeatStore(), service.PrunerConfig{
		RetentionDays: 30,
		IntervalHours: 1,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	pruner.Start(ctx)

	cancel()
	pruner.Stop()
	pruner.Stop()
}

func TestHeartbeatPruner_StopWithoutStart(t *testing.T) {
	pruner := service.NewHeartbeatPruner(memory.NewHeartbeatStore(), service.PrunerConfig{
		RetentionDays: 30,
	}, zap.NewNop())
	pruner.Stop()
}

func TestHeartbeatPruner_PruneOnce(t *testing.T) {
	hs := memory.NewHeartbeatStore()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, age := range []int{-45, -31, -2} {
		require.NoError(t, hs.AppendHeartbeat(ctx, store.HeartbeatRecord{
			ChipID:     "chip-001",
			ReceivedAt: now.AddDate(0, 0, age),
		}))
	}

	keepAll := service.NewHeartbeatPruner(hs, service.PrunerConfig{}, nil)
	assert.Zero(t, keepAll.PruneOnce(ctx))
	assert.Len(t, hs.Heartbeats(), 3)

	pruner := service.NewHeartbeatPruner(hs, service.PrunerConfig{RetentionDays: 30}, zap.NewNop())
	assert.EqualValues(t, 2, pruner.PruneOnce(ctx))
	assert.Len(t, hs.Heartbeats(), 1)
	assert.Zero(t, pruner.PruneOnce(ctx))
}
