package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/logging"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List channels configured on the device, ensuring the default set from config",
	RunE:  runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(_ *cobra.Command, _ []string) error {
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

	public, err := c.GetPublicChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to read public channel: %w", err)
	}
	fmt.Printf("  [%d] %-20s encrypted=%v\n", public.Index, public.Name, public.Encrypted())

	for _, name := range cfg.Channels.Hashtags {
		ch, err := c.EnsureHashtagChannel(ctx, name)
		if err != nil {
			logging.Warn("failed to ensure hashtag channel", zap.String("name", name), zap.Error(err))
			continue
		}
		fmt.Printf("  [%d] %-20s encrypted=%v\n", ch.Index, ch.Name, ch.Encrypted())
	}

	return nil
}
