package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Operator commands act on the database file directly; run them next to
// (or instead of) a serving gateway.

var provisionCmd = &cobra.Command{
	Use:   "provision <chipId>",
	Short: "Issue a new bearer token for a registered device",
	Long: `Generates a fresh token for the device, stores its bcrypt hash and
prints the token once. Any previous token stops working and a revoked
device is reinstated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(func(ctx context.Context, be *backend) error {
			token, err := be.registry().ProvisionToken(ctx, args[0])
			if err != nil {
				return fmt.Errorf("provision %s: %w", args[0], err)
			}
			logger.Info("device provisioned", zap.String("chip_id", args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		})
	},
}

var bindRoomCmd = &cobra.Command{
	Use:   "bind-room <chipId> <roomId>",
	Short: "Attach a device to the room whose whitelist it enforces",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(func(ctx context.Context, be *backend) error {
			if err := be.registry().BindRoom(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("bind %s to %s: %w", args[0], args[1], err)
			}
			logger.Info("device bound", zap.String("chip_id", args[0]), zap.String("room_id", args[1]))
			return nil
		})
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <chipId>",
	Short: "Stop accepting a device's token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(func(ctx context.Context, be *backend) error {
			if err := be.registry().Revoke(ctx, args[0]); err != nil {
				return fmt.Errorf("revoke %s: %w", args[0], err)
			}
			logger.Info("device revoked", zap.String("chip_id", args[0]))
			return nil
		})
	},
}

func withBackend(fn func(ctx context.Context, be *backend) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be, err := openBackend(ctx, false, nil)
	if err != nil {
		return err
	}
	defer be.Close()
	return fn(ctx, be)
}
