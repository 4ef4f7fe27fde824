package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/logging"
	"github.com/iamruinous/meshcore-go/internal/tui"
)

var (
	dryRun      bool
	interactive bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Connect to the device and watch push events",
	Long: `Connect to the configured MeshCore device and watch incoming
push events: contact and channel messages, status/trace/binary
responses, and transport errors.

Use --interactive or -i to run with an interactive TUI instead of
plain log lines.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate configuration without connecting")
	monitorCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run with interactive TUI")
}

func runMonitor(_ *cobra.Command, _ []string) error {
	cfg, err := loadAndValidate()
	if err != nil {
		return err
	}

	if interactive {
		cfg.Logging.Format = "text"
		cfg.Logging.Level = "error"
	}
	if err := initLogging(cfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if cfgFile := GetConfigFile(); cfgFile != "" {
		logging.Info("Using config file", zap.String("path", cfgFile))
	}

	if dryRun {
		fmt.Println("Configuration is valid!")
		fmt.Printf("  Connection: %s\n", cfg.Connection.Type)
		fmt.Printf("  Hashtag channels: %d\n", len(cfg.Channels.Hashtags))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, teardown, err := connectClient(ctx, cfg)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if interactive {
		go func() {
			<-sigChan
			cancel()
		}()

		if err := tui.Run(c); err != nil {
			logging.Error("TUI error", zap.Error(err))
		}
	} else {
		logging.Info("Monitoring device. Press Ctrl+C to stop.")
		sub := c.Transport().Subscribe()
		defer sub.Close()

		done := false
		for !done {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					done = true
					break
				}
				if ev.Err != nil {
					logging.Error("transport error", zap.Error(ev.Err))
					continue
				}
				logging.Info("push event",
					zap.String("code", ev.Frame.Code().String()),
					zap.Int("payload_len", len(ev.Frame.Payload)))
			case <-sigChan:
				logging.Info("Received shutdown signal")
				done = true
			}
		}
	}

	if err := teardown(); err != nil {
		logging.Error("Error disconnecting", zap.Error(err))
	}

	return nil
}
