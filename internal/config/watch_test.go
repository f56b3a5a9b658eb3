package config_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
	"github.com/BrandonDHaskell/Portunus/campus/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDeviceConfigWatcher_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.yaml")
	writeFile(t, path, "device_config:\n  heartbeat_interval_sec: 10\n")

	var got atomic.Pointer[types.DeviceConfig]
	w := config.NewDeviceConfigWatcher(path, func(c types.DeviceConfig) { got.Store(&c) }, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, path, "device_config:\n  heartbeat_interval_sec: 42\n")

	require.Eventually(t, func() bool {
		c := got.Load()
		return c != nil && c.HeartbeatIntervalSec == 42
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDeviceConfigWatcher_BadFileKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.yaml")
	writeFile(t, path, "device_config:\n  heartbeat_interval_sec: 10\n")

	var calls atomic.Int32
	w := config.NewDeviceConfigWatcher(path, func(types.DeviceConfig) { calls.Add(1) }, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, path, "device_config: [broken")
	time.Sleep(600 * time.Millisecond)
	w.Stop()

	assert.Zero(t, calls.Load())
}

func TestDeviceConfigWatcher_StopWithoutStart(t *testing.T) {
	w := config.NewDeviceConfigWatcher("campus.yaml", func(types.DeviceConfig) {}, zap.NewNop())
	w.Stop()
	w.Stop()
}
