package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/config"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("CAMPUS_CONFIG", "")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 30, cfg.HeartbeatRetentionDays)
	assert.Equal(t, 6, cfg.PruneIntervalHours)
	assert.Equal(t, config.DefaultDeviceConfig(), cfg.Device)
}

func TestFromEnv_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.yaml")
	writeFile(t, path, `
http_addr: ":7000"
grpc_addr: ""
db_path: /var/lib/campus.db
heartbeat_retention_days: 0
device_config:
  ble_service_uuid: 6e400001-b5a3-f393-e0a9-e50e24dcca9e
  heartbeat_interval_sec: 15
  features:
    ble_unlock: true
`)
	t.Setenv("CAMPUS_CONFIG", path)
	t.Setenv("CAMPUS_HTTP_ADDR", ":9000")
	t.Setenv("CAMPUS_ENV", "staging")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr, "env wins over file")
	assert.Empty(t, cfg.GRPCAddr, "explicit empty disables gRPC")
	assert.Equal(t, "dev", cfg.Env, "unknown env falls back to dev")
	assert.Equal(t, "/var/lib/campus.db", cfg.DBPath)
	assert.Zero(t, cfg.HeartbeatRetentionDays)
	assert.Equal(t, 15, cfg.Device.HeartbeatIntervalSec)
	assert.Equal(t, 300, cfg.Device.LogSyncIntervalSec, "unset fields keep defaults")
	assert.True(t, cfg.Device.Features["ble_unlock"])
}

func TestFromEnv_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.yaml")
	writeFile(t, path, "device_config: [not, a, map")
	t.Setenv("CAMPUS_CONFIG", path)

	_, err := config.FromEnv()
	assert.Error(t, err)

	t.Setenv("CAMPUS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = config.FromEnv()
	assert.Error(t, err)
}

func TestClientFromEnv(t *testing.T) {
	t.Setenv("CAMPUS_GATEWAY_URL", "https://gw.example.edu/")
	t.Setenv("CAMPUS_KV_BACKEND", "sqlite")
	t.Setenv("CAMPUS_QUEUE_LIMIT", "-3")

	cfg, err := config.ClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example.edu", cfg.GatewayURL)
	assert.Equal(t, "sqlite", cfg.KVBackend)
	assert.Equal(t, 500, cfg.QueueLimit, "negative values fall back to default")
	assert.Equal(t, 10*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, time.Minute, cfg.ReplayInterval)

	t.Setenv("CAMPUS_KV_BACKEND", "redis")
	_, err = config.ClientFromEnv()
	assert.ErrorIs(t, err, config.ErrBadBackend)
}
