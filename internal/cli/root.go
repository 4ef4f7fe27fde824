// Package cli provides the command-line interface for meshcore-cli.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "meshcore-cli",
	Short: "A host-side client for MeshCore LoRa mesh radios",
	Long: `meshcore-cli talks to a MeshCore device over its framed
byte-stream protocol (serial, TCP, or an MQTT-bridged tunnel) and
exposes device queries, contact and channel management, messaging, and
network diagnostics (path discovery, neighbours, status).

Use the per-operation commands (device-info, contacts, channels,
send-contact, send-channel, discover-path, status, neighbours) for
one-shot operations, "monitor" to watch push events or launch the
interactive monitor, and "simulate" to run an in-process fake device for
testing without hardware.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.config/meshcore-cli/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations (in priority order)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml") // Supports both .yaml and .yml extensions
		viper.AddConfigPath("$HOME/.config/meshcore-cli")
		viper.AddConfigPath("/etc/meshcore-cli")
		viper.AddConfigPath(".")
	}

	// Environment variables
	viper.SetEnvPrefix("MESHCORE")
	viper.AutomaticEnv()

	// Read config file if it exists (errors are intentionally ignored)
	_ = viper.ReadInConfig()
}

// GetConfigFile returns the config file being used
func GetConfigFile() string {
	return viper.ConfigFileUsed()
}
