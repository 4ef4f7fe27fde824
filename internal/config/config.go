// Package config provides configuration types and loading for the
// meshcore-cli client.
package config

// Config represents the complete application configuration.
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Channels   ChannelConfig    `mapstructure:"channels"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ConnectionConfig defines how to reach the MeshCore device.
type ConnectionConfig struct {
	Type   string       `mapstructure:"type"` // serial, tcp, mqtt
	Serial SerialConfig `mapstructure:"serial"`
	TCP    TCPConfig    `mapstructure:"tcp"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
}

// SerialConfig defines serial port connection settings.
type SerialConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// TCPConfig defines TCP connection settings.
type TCPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MQTTConfig defines MQTT bridge connection settings: a remote
// companion app reached through a gateway that relays raw frame bytes
// over a pair of topics derived from Topic (SPEC_FULL.md §6.1).
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

// ChannelConfig holds the channel settings the CLI's channels command
// uses.
type ChannelConfig struct {
	// PublicChannelName is loaded from configuration but not applied:
	// the synthesised channel at index 0 always takes its name from
	// meshcore.PublicChannelDefault.
	PublicChannelName string `mapstructure:"public_channel_name"`
	// Hashtags are hashtag-channel names the channels command ensures
	// exist; connecting alone does not create them.
	Hashtags []string `mapstructure:"hashtags"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Type: "serial",
			Serial: SerialConfig{
				Port: "/dev/ttyUSB0",
				Baud: 115200,
			},
			TCP: TCPConfig{
				Host: "localhost",
				Port: 5000,
			},
			MQTT: MQTTConfig{
				Broker: "tcp://localhost:1883",
				Topic:  "meshcore",
			},
		},
		Channels: ChannelConfig{
			PublicChannelName: "All",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
