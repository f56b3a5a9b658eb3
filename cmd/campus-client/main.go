// Command campus-client is the command-line stand-in for the mobile app:
// it signs a user in, submits attendance through the offline-tolerant
// pipeline and replays whatever was queued.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BrandonDHaskell/Portunus/campus/internal/attendance"
	"github.com/BrandonDHaskell/Portunus/campus/internal/config"
	"github.com/BrandonDHaskell/Portunus/campus/internal/kv"
)

var (
	verbose    bool
	gatewayURL string
	kvBackend  string
	kvPath     string

	cfg    config.ClientConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "campus-client",
	Short:         "Campus attendance client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.ClientFromEnv()
		if err != nil {
			return err
		}
		if gatewayURL != "" {
			cfg.GatewayURL = gatewayURL
		}
		if kvBackend != "" {
			cfg.KVBackend = kvBackend
		}
		if kvPath != "" {
			cfg.KVPath = kvPath
		}

		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{"stderr"}
		if verbose || cfg.LogLevel == "debug" {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "Gateway base URL (default $CAMPUS_GATEWAY_URL)")
	rootCmd.PersistentFlags().StringVar(&kvBackend, "kv", "", "Local store backend: file, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&kvPath, "kv-path", "", "Local store directory (file) or database file (sqlite)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(deviceIDCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(queueCmd)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// client bundles the local state every command works against.
type client struct {
	store    kv.Store
	identity *attendance.IdentityStore
	devices  *attendance.DeviceIDProvider
	queue    *attendance.Queue
}

func openClient(ctx context.Context) (*client, error) {
	path := cfg.KVPath
	if cfg.KVBackend == "sqlite" && filepath.Ext(path) == "" {
		path = filepath.Join(path, "campus.db")
	}
	store, err := kv.Open(ctx, kv.Config{Backend: cfg.KVBackend, Path: path})
	if err != nil {
		return nil, err
	}
	return &client{
		store:    store,
		identity: attendance.NewIdentityStore(store),
		devices:  attendance.NewDeviceIDProvider(store),
		queue:    attendance.NewQueue(store, cfg.QueueLimit, logger.Named("queue")),
	}, nil
}

func (c *client) Close() error { return c.store.Close() }
