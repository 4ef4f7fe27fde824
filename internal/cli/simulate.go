package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamruinous/meshcore-go/internal/simulate"
	"github.com/iamruinous/meshcore-go/internal/streamio"
	"github.com/iamruinous/meshcore-go/internal/tui"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/client"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/transport"
)

var (
	simAdvertName  string
	simInterval    time.Duration
	simVerbose     bool
	simInteractive bool
	simPTY         bool
	simPTYSymlink  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an in-process simulated MeshCore device",
	Long: `Run an in-process simulated MeshCore device for testing without
hardware. The simulator speaks enough of the wire protocol to answer
device-info, contact, channel, and messaging commands, and periodically
pushes simulated contact messages.

By default the CLI connects to the simulator over an in-memory pipe and
either prints a one-shot summary or launches the interactive TUI
monitor. With --pty, the simulator instead attaches to a real
pseudo-terminal and prints the slave device path, so an external
process (including another invocation of this CLI configured with
connection.type "serial") can connect to it like a real device.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simAdvertName, "advert-name", "SimNode", "simulated device advert name")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 30*time.Second, "simulated message push interval (0 to disable)")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "verbose simulator logging")
	simulateCmd.Flags().BoolVarP(&simInteractive, "interactive", "i", false, "run with interactive TUI")
	simulateCmd.Flags().BoolVar(&simPTY, "pty", false, "attach the simulator to a real pseudo-terminal instead of an in-memory pipe")
	simulateCmd.Flags().StringVar(&simPTYSymlink, "pty-symlink", "", "create a symlink to the allocated PTY slave at this path")
}

func runSimulate(_ *cobra.Command, _ []string) error {
	cfg := simulate.DefaultConfig()
	cfg.AdvertName = simAdvertName
	cfg.MessageInterval = simInterval
	cfg.Verbose = simVerbose

	if simPTY {
		return runSimulatePTY(cfg)
	}

	clientSide, deviceSide := streamio.NewPipePair()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device := simulate.New(cfg, deviceSide)
	go func() {
		if err := device.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "simulator stopped: %v\n", err)
		}
	}()

	t := transport.New(transport.NopObserver{})
	if err := t.Connect(ctx, clientSide); err != nil {
		return fmt.Errorf("failed to attach simulated stream: %w", err)
	}
	c := client.New(t)

	fmt.Printf("Simulated MeshCore device started\n")
	fmt.Printf("  Advert name:      %s\n", cfg.AdvertName)
	fmt.Printf("  Contacts:         %d\n", len(cfg.Contacts))
	if cfg.MessageInterval > 0 {
		fmt.Printf("  Message interval: %v\n", cfg.MessageInterval)
	} else {
		fmt.Printf("  Auto messages:    disabled\n")
	}
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if simInteractive {
		go func() {
			<-sigChan
			cancel()
		}()
		if err := tui.Run(c); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		}
	} else {
		info, err := c.QueryDeviceInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to query simulated device: %w", err)
		}
		fmt.Printf("Device info: firmware=%d max_contacts=%d hw=%s\n", info.FirmwareVer, info.MaxContacts, info.HardwareModel)
		fmt.Println("Press Ctrl+C to stop")
		<-sigChan
	}

	fmt.Println("\nShutting down...")
	_ = t.Disconnect()
	return nil
}

// runSimulatePTY attaches the simulated device to a real pseudo-terminal
// instead of an in-memory pipe, so an external process can connect to
// it over a serial-like path.
func runSimulatePTY(cfg simulate.Config) error {
	pty, err := simulate.OpenPTY()
	if err != nil {
		return fmt.Errorf("failed to open pty: %w", err)
	}
	defer pty.Close()

	if simPTYSymlink != "" {
		if err := pty.CreateSymlink(simPTYSymlink); err != nil {
			return fmt.Errorf("failed to create pty symlink: %w", err)
		}
		fmt.Printf("Simulated MeshCore device listening on %s (symlink to %s)\n", simPTYSymlink, pty.SlavePath)
	} else {
		fmt.Printf("Simulated MeshCore device listening on %s\n", pty.SlavePath)
	}
	fmt.Printf("  Advert name: %s\n", cfg.AdvertName)
	fmt.Println("Connect with: meshcore-cli configured with connection.type=serial and connection.serial.port=<path above>")
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	device := simulate.New(cfg, pty.Master)
	if err := device.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("simulator stopped: %w", err)
	}
	return nil
}
