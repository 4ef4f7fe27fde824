package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the configuration from viper and returns a Config struct
func Load() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Connection.Type = viper.GetString("connection.type")

	cfg.Connection.Serial.Port = viper.GetString("connection.serial.port")
	cfg.Connection.Serial.Baud = viper.GetInt("connection.serial.baud")
	if cfg.Connection.Serial.Baud == 0 {
		cfg.Connection.Serial.Baud = 115200
	}

	cfg.Connection.TCP.Host = viper.GetString("connection.tcp.host")
	cfg.Connection.TCP.Port = viper.GetInt("connection.tcp.port")
	if cfg.Connection.TCP.Port == 0 {
		cfg.Connection.TCP.Port = 5000
	}

	cfg.Connection.MQTT.Broker = viper.GetString("connection.mqtt.broker")
	cfg.Connection.MQTT.Topic = viper.GetString("connection.mqtt.topic")
	cfg.Connection.MQTT.ClientID = viper.GetString("connection.mqtt.client_id")

	if name := viper.GetString("channels.public_channel_name"); name != "" {
		cfg.Channels.PublicChannelName = name
	}
	cfg.Channels.Hashtags = viper.GetStringSlice("channels.hashtags")

	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Connection.Type {
	case "serial", "tcp", "mqtt":
		// Valid
	case "":
		return fmt.Errorf("connection.type is required")
	default:
		return fmt.Errorf("invalid connection.type: %s (must be serial, tcp, or mqtt)", c.Connection.Type)
	}

	switch c.Connection.Type {
	case "serial":
		if c.Connection.Serial.Port == "" {
			return fmt.Errorf("connection.serial.port is required for serial connection")
		}
	case "tcp":
		if c.Connection.TCP.Host == "" {
			return fmt.Errorf("connection.tcp.host is required for tcp connection")
		}
	case "mqtt":
		if c.Connection.MQTT.Broker == "" {
			return fmt.Errorf("connection.mqtt.broker is required for mqtt connection")
		}
		if c.Connection.MQTT.Topic == "" {
			return fmt.Errorf("connection.mqtt.topic is required for mqtt connection")
		}
	}

	for i, name := range c.Channels.Hashtags {
		if len(name) == 0 || name[0] != '#' {
			return fmt.Errorf("channels.hashtags[%d] must start with '#': %q", i, name)
		}
	}

	return nil
}
