package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iamruinous/meshcore-go/internal/config"
	"github.com/iamruinous/meshcore-go/internal/logging"
	"github.com/iamruinous/meshcore-go/internal/streamio"
	"github.com/iamruinous/meshcore-go/pkg/meshcore"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/client"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/transport"
)

// zapObserver adapts the package-level logging.Logger to
// transport.Observer, so the core transport can report frame/error
// events without importing zap itself (SPEC_FULL.md §6.4).
type zapObserver struct{}

func (zapObserver) OnFrame(f meshcore.Frame) {
	logging.Debug("frame received",
		zap.String("direction", directionName(f.Start)),
		zap.Int("payload_len", len(f.Payload)))
}

func (zapObserver) OnError(err error) {
	logging.Error("transport error", zap.Error(err))
}

func directionName(start byte) string {
	if start == meshcore.FrameStartInbound {
		return "inbound"
	}
	return "outbound"
}

// openStream dials the connection configured in cfg and returns a
// ready-to-use transport.Stream.
func openStream(ctx context.Context, cfg *config.Config) (transport.Stream, error) {
	switch cfg.Connection.Type {
	case "serial":
		return streamio.OpenSerial(cfg.Connection.Serial.Port, cfg.Connection.Serial.Baud)
	case "tcp":
		return streamio.DialTCP(ctx, cfg.Connection.TCP.Host, cfg.Connection.TCP.Port)
	case "mqtt":
		return streamio.DialMQTTBridge(cfg.Connection.MQTT.Broker, cfg.Connection.MQTT.Topic, cfg.Connection.MQTT.ClientID)
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", cfg.Connection.Type)
	}
}

// connectClient dials the configured stream and returns a ready Client
// plus a teardown function the caller must run when finished.
func connectClient(ctx context.Context, cfg *config.Config) (*client.Client, func() error, error) {
	stream, err := openStream(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open connection: %w", err)
	}

	t := transport.New(zapObserver{})
	if err := t.Connect(ctx, stream); err != nil {
		return nil, nil, fmt.Errorf("failed to attach stream: %w", err)
	}

	return client.New(t), t.Disconnect, nil
}
