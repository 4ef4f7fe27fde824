package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/config"
	"github.com/iamruinous/meshcore-go/internal/logging"
)

var deviceInfoCmd = &cobra.Command{
	Use:   "device-info",
	Short: "Query the connected device's identity and capabilities",
	RunE:  runDeviceInfo,
}

func init() {
	rootCmd.AddCommand(deviceInfoCmd)
}

func runDeviceInfo(_ *cobra.Command, _ []string) error {
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

	info, err := c.QueryDeviceInfo(ctx)
	if err != nil {
		return fmt.Errorf("device query failed: %w", err)
	}

	fmt.Printf("Firmware version: %d\n", info.FirmwareVer)
	fmt.Printf("Max contacts:     %d\n", info.MaxContacts)
	fmt.Printf("Max group chans:  %d\n", info.MaxGroupChannels)
	fmt.Printf("Device ID:        %s\n", info.DeviceID)
	fmt.Printf("Firmware build:   %s\n", info.FirmwareBuild)
	fmt.Printf("Hardware model:   %s\n", info.HardwareModel)
	fmt.Printf("Serial number:    %s\n", info.SerialNumber)
	fmt.Printf("Public key:       %x\n", info.PublicKey)

	batt, err := c.GetBattAndStorage(ctx)
	if err == nil {
		fmt.Printf("Battery:          %d mV\n", batt.BatteryMv)
		fmt.Printf("Storage:          %d/%d KB used\n", batt.UsedKb, batt.TotalKb)
	}

	return nil
}

// loadAndValidate is the common config.Load + Validate pair every
// one-shot command starts with.
func loadAndValidate() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}
	if logCfg.Level == "" {
		logCfg.Level = cfg.Logging.Level
	}
	if logCfg.Format == "" {
		logCfg.Format = cfg.Logging.Format
	}
	return logging.Initialize(logCfg)
}
