package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
	"github.com/BrandonDHaskell/Portunus/campus/internal/config"
	"github.com/BrandonDHaskell/Portunus/campus/internal/grpcapi"
	"github.com/BrandonDHaskell/Portunus/campus/internal/httpapi"
)

var (
	ephemeral bool
	seedChips []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Use a seeded in-memory database")
	serveCmd.Flags().StringSliceVar(&seedChips, "seed-chip", nil, "Chip ids to pre-register in dev/ephemeral mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, ephemeral, seedChips)
	if err != nil {
		return err
	}
	defer be.Close()

	// Services
	registry := be.registry()
	configSvc := service.NewConfigService(cfg.Device)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger.Named("http"),
		Addr:       cfg.HTTPAddr,
		Registry:   registry,
		Auth:       service.NewAuthenticator(be.devices),
		Heartbeats: service.NewHeartbeatService(be.heartbeats, be.devices, logger.Named("heartbeat")),
		Whitelist:  service.NewWhitelistService(be.directory),
		Logs:       service.NewLogService(be.logs, be.directory),
		Config:     configSvc,
		Attendance: service.NewAttendanceService(be.logs, be.directory),
	})

	// Background work
	pruner := service.NewHeartbeatPruner(be.heartbeats, service.PrunerConfig{
		RetentionDays: cfg.HeartbeatRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger.Named("pruner"))
	pruner.Start(ctx)
	defer pruner.Stop()

	if cfg.ConfigFile != "" {
		watcher := config.NewDeviceConfigWatcher(cfg.ConfigFile, configSvc.Update, logger.Named("config"))
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("device config hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	var health *grpcapi.HealthServer
	if cfg.GRPCAddr != "" {
		health = grpcapi.NewHealthServer(cfg.GRPCAddr, logger.Named("grpc"))
		if err := health.Start(); err != nil {
			return err
		}
		defer health.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("ephemeral", ephemeral))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if health != nil {
		health.SetServing(true)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	}

	if health != nil {
		health.SetServing(false)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
