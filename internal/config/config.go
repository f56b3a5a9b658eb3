package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string // "" disables the gRPC health listener

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/campus.db"

	LogLevel string // "info" | "debug"

	// Heartbeat retention
	HeartbeatRetentionDays int // 0 = keep forever
	PruneIntervalHours     int // how often the pruner runs (default 6)

	// ConfigFile is the YAML file named by CAMPUS_CONFIG, if any. Its
	// device_config section is hot-reloaded while the gateway runs.
	ConfigFile string
	Device     types.DeviceConfig
}

// fileConfig mirrors the YAML layout. Pointers distinguish "unset" from
// an explicit zero.
type fileConfig struct {
	HTTPAddr               string             `yaml:"http_addr"`
	GRPCAddr               *string            `yaml:"grpc_addr"`
	Env                    string             `yaml:"env"`
	DBPath                 string             `yaml:"db_path"`
	LogLevel               string             `yaml:"log_level"`
	HeartbeatRetentionDays *int               `yaml:"heartbeat_retention_days"`
	PruneIntervalHours     *int               `yaml:"prune_interval_hours"`
	DeviceConfig           types.DeviceConfig `yaml:"device_config"`
}

// DefaultDeviceConfig is served to nodes when no file overrides it.
func DefaultDeviceConfig() types.DeviceConfig {
	return types.DeviceConfig{
		HeartbeatIntervalSec: 60,
		LogSyncIntervalSec:   300,
	}
}

// FromEnv builds the gateway config: defaults, then the YAML file named by
// CAMPUS_CONFIG, then CAMPUS_* variables on top.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:               ":8080",
		GRPCAddr:               ":9090",
		Env:                    "dev",
		DBPath:                 "./data/campus.db",
		LogLevel:               "info",
		HeartbeatRetentionDays: 30,
		PruneIntervalHours:     6,
		ConfigFile:             strings.TrimSpace(os.Getenv("CAMPUS_CONFIG")),
		Device:                 DefaultDeviceConfig(),
	}

	if cfg.ConfigFile != "" {
		fc, err := readFile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		fc.applyTo(&cfg)
	}

	cfg.HTTPAddr = getenvDefault("CAMPUS_HTTP_ADDR", cfg.HTTPAddr)
	if v, ok := os.LookupEnv("CAMPUS_GRPC_ADDR"); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}
	cfg.Env = strings.ToLower(getenvDefault("CAMPUS_ENV", cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	cfg.DBPath = getenvDefault("CAMPUS_DB_PATH", cfg.DBPath)
	cfg.LogLevel = strings.ToLower(getenvDefault("CAMPUS_LOG_LEVEL", cfg.LogLevel))
	cfg.HeartbeatRetentionDays = getenvInt("CAMPUS_HEARTBEAT_RETENTION_DAYS", cfg.HeartbeatRetentionDays)
	cfg.PruneIntervalHours = getenvInt("CAMPUS_PRUNE_INTERVAL_HOURS", cfg.PruneIntervalHours)

	return cfg, nil
}

// LoadDeviceConfig reads only the device_config section of path, falling
// back to defaults for fields the file leaves out.
func LoadDeviceConfig(path string) (types.DeviceConfig, error) {
	fc, err := readFile(path)
	if err != nil {
		return types.DeviceConfig{}, err
	}
	cfg := Config{Device: DefaultDeviceConfig()}
	fc.applyTo(&cfg)
	return cfg.Device, nil
}

func readFile(path string) (fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) applyTo(cfg *Config) {
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.GRPCAddr != nil {
		cfg.GRPCAddr = *fc.GRPCAddr
	}
	if fc.Env != "" {
		cfg.Env = fc.Env
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.HeartbeatRetentionDays != nil && *fc.HeartbeatRetentionDays >= 0 {
		cfg.HeartbeatRetentionDays = *fc.HeartbeatRetentionDays
	}
	if fc.PruneIntervalHours != nil && *fc.PruneIntervalHours >= 0 {
		cfg.PruneIntervalHours = *fc.PruneIntervalHours
	}

	d := fc.DeviceConfig
	if d.BLEServiceUUID != "" {
		cfg.Device.BLEServiceUUID = d.BLEServiceUUID
	}
	if d.BLEPairingKey != "" {
		cfg.Device.BLEPairingKey = d.BLEPairingKey
	}
	if d.HeartbeatIntervalSec > 0 {
		cfg.Device.HeartbeatIntervalSec = d.HeartbeatIntervalSec
	}
	if d.LogSyncIntervalSec > 0 {
		cfg.Device.LogSyncIntervalSec = d.LogSyncIntervalSec
	}
	if d.Features != nil {
		cfg.Device.Features = d.Features
	}
}

// ClientConfig drives campus-client.
type ClientConfig struct {
	GatewayURL string

	KVBackend string // "file" | "sqlite" | "memory"
	KVPath    string

	QueueLimit     int
	SubmitTimeout  time.Duration
	ReplayInterval time.Duration

	LogLevel string
}

var ErrBadBackend = errors.New("unknown kv backend")

func ClientFromEnv() (ClientConfig, error) {
	cfg := ClientConfig{
		GatewayURL:     strings.TrimRight(getenvDefault("CAMPUS_GATEWAY_URL", "http://localhost:8080"), "/"),
		KVBackend:      strings.ToLower(getenvDefault("CAMPUS_KV_BACKEND", "file")),
		KVPath:         getenvDefault("CAMPUS_KV_PATH", defaultKVPath()),
		QueueLimit:     getenvInt("CAMPUS_QUEUE_LIMIT", 500),
		SubmitTimeout:  time.Duration(getenvInt("CAMPUS_SUBMIT_TIMEOUT_SEC", 10)) * time.Second,
		ReplayInterval: time.Duration(getenvInt("CAMPUS_REPLAY_INTERVAL_SEC", 60)) * time.Second,
		LogLevel:       strings.ToLower(getenvDefault("CAMPUS_LOG_LEVEL", "info")),
	}

	switch cfg.KVBackend {
	case "file", "sqlite", "memory":
	default:
		return ClientConfig{}, fmt.Errorf("%w: %q", ErrBadBackend, cfg.KVBackend)
	}
	return cfg, nil
}

func defaultKVPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/client"
	}
	return dir + string(os.PathSeparator) + "campus"
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
