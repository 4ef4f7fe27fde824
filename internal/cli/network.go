package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/logging"
	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

var discoverPathCmd = &cobra.Command{
	Use:   "discover-path <target-public-key-hex>",
	Short: "Discover the route to a 32-byte target public key (two-phase operation)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscoverPath,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Request a health status snapshot from the device (two-phase operation)",
	RunE:  runStatus,
}

var neighboursCmd = &cobra.Command{
	Use:   "neighbours",
	Short: "Request the device's current neighbour table (two-phase operation)",
	RunE:  runNeighbours,
}

func init() {
	rootCmd.AddCommand(discoverPathCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(neighboursCmd)
}

func runDiscoverPath(_ *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(args[0])
	if err != nil || len(raw) != meshcore.PublicKeySize {
		return fmt.Errorf("target public key must be exactly %d hex-encoded bytes", meshcore.PublicKeySize)
	}
	var target [meshcore.PublicKeySize]byte
	copy(target[:], raw)

	cfg, err := loadAndValidate()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := context.Background()
	c, teardown, err := connectClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := teardown(); err != nil {
			logging.Warn("error disconnecting", zap.Error(err))
		}
	}()

	result, err := c.DiscoverPath(ctx, target)
	if err != nil {
		return fmt.Errorf("path discovery failed: %w", err)
	}
	fmt.Printf("in_path:  %x\n", result.InPath)
	fmt.Printf("out_path: %x\n", result.OutPath)
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadAndValidate()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := context.Background()
	c, teardown, err := connectClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := teardown(); err != nil {
			logging.Warn("error disconnecting", zap.Error(err))
		}
	}()

	status, err := c.RequestStatus(ctx)
	if err != nil {
		return fmt.Errorf("status request failed: %w", err)
	}
	fmt.Printf("Battery:        %d mV\n", status.BatteryMv)
	fmt.Printf("Uptime:         %d s\n", status.UptimeSecs)
	fmt.Printf("TX queue len:   %d\n", status.CurrTxQueueLen)
	fmt.Printf("Noise floor:    %d dBm\n", status.NoiseFloor)
	return nil
}

func runNeighbours(_ *cobra.Command, _ []string) error {
	cfg, err := loadAndValidate()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := context.Background()
	c, teardown, err := connectClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := teardown(); err != nil {
			logging.Warn("error disconnecting", zap.Error(err))
		}
	}()

	list, err := c.RequestNeighbours(ctx)
	if err != nil {
		return fmt.Errorf("neighbour request failed: %w", err)
	}
	fmt.Printf("%d neighbour(s):\n", len(list.Neighbours))
	for _, n := range list.Neighbours {
		fmt.Printf("  %x  %ds ago  SNR=%.1f\n", n.PubkeyPrefix, n.SecsAgo, n.SNR())
	}
	return nil
}
