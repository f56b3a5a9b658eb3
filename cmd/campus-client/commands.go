package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/attendance"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

var loginCmd = &cobra.Command{
	Use:   "login <userId>",
	Short: "Sign in and enroll the PIN used to confirm attendance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		pin, err := readSecret("Choose a PIN: ")
		if err != nil {
			return err
		}
		if err := enrollPIN(ctx, c.store, pin); err != nil {
			return err
		}
		if err := c.identity.Set(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out; queued attendance is kept",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.identity.Clear(ctx); err != nil {
			return err
		}
		return c.store.Delete(ctx, pinKey)
	},
}

var deviceIDCmd = &cobra.Command{
	Use:   "device-id",
	Short: "Print this installation's device identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		id, err := c.devices.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var (
	submitRoom   string
	submitMethod string
	submitLat    float64
	submitLng    float64
	submitAcc    float64
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record attendance for a room, queueing it if the gateway is unreachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		clock := attendance.NewOffsetClock()
		backend := attendance.NewHTTPBackend(cfg.GatewayURL, cfg.SubmitTimeout, clock)
		if err := syncClock(ctx, backend); err != nil {
			logger.Debug("clock sync failed; using local time", zap.Error(err))
		}

		var loc staticLocator
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			loc.gps = &types.GPS{Lat: submitLat, Lng: submitLng, Accuracy: submitAcc}
		}

		p := attendance.NewPipeline(attendance.Dependencies{
			Identity:  c.identity,
			DeviceIDs: c.devices,
			Biometric: pinBiometric{store: c.store},
			Locator:   loc,
			Backend:   backend,
			Notifier:  consoleNotifier{w: os.Stderr},
			Queue:     c.queue,
			Clock:     clock,
			Logger:    logger.Named("pipeline"),
			Timeout:   cfg.SubmitTimeout,
		})

		res, err := p.Submit(ctx, attendance.SubmitRequest{RoomID: submitRoom, Method: types.Method(submitMethod)})
		if errors.Is(err, attendance.ErrNotConfigured) {
			return fmt.Errorf("%w (run `campus-client login <userId>` first)", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Outcome, res.SubmissionID)
		return nil
	},
}

func syncClock(ctx context.Context, b *attendance.HTTPBackend) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return b.SyncClock(ctx)
}

var replayEvery time.Duration

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Send queued attendance to the gateway",
	Long: `Runs one replay pass and prints the result. With --every, keeps
replaying on that interval until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		backend := attendance.NewHTTPBackend(cfg.GatewayURL, cfg.SubmitTimeout, nil)
		r := attendance.NewReplayer(c.queue, attendance.Deliverer(backend, cfg.SubmitTimeout), replayEvery, logger.Named("replay"))

		if replayEvery > 0 {
			r.Start(ctx)
			<-ctx.Done()
			r.Stop()
			return nil
		}

		report, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d delivered=%d rejected=%d remaining=%d\n",
			report.Attempted, report.Delivered, report.Rejected, report.Remaining)
		return nil
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Print queued attendance records as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		recs, err := c.queue.Records(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitRoom, "room", "", "Room id")
	submitCmd.Flags().StringVar(&submitMethod, "method", string(types.MethodPhone), "Method: phone or card")
	submitCmd.Flags().Float64Var(&submitLat, "lat", 0, "Latitude")
	submitCmd.Flags().Float64Var(&submitLng, "lng", 0, "Longitude")
	submitCmd.Flags().Float64Var(&submitAcc, "accuracy", 0, "Location accuracy in metres")
	_ = submitCmd.MarkFlagRequired("room")

	replayCmd.Flags().DurationVar(&replayEvery, "every", 0, "Replay continuously on this interval")
}
