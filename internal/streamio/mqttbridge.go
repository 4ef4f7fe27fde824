package streamio

import (
	"encoding/base64"
	"fmt"
	"io"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// connectTimeout bounds the initial broker handshake.
const connectTimeout = 10 * time.Second

// MQTTBridge presents a duplex transport.Stream over a pair of MQTT
// topics: outbound frame bytes are base64-encoded and published to
// host2dev, inbound bytes arrive base64-encoded on dev2host. This
// models a MeshCore companion app reachable only through a remote MQTT
// tunnel, where a gateway process relays raw frame bytes between the
// device's real byte stream and the broker (SPEC_FULL.md §6.1).
//
// The client lifecycle (SetAutoReconnect, SetConnectionLostHandler,
// SetOnConnectHandler) treats the MQTT transport as a raw pipe and lets
// the frame codec upstream do the parsing.
type MQTTBridge struct {
	client      mqtt.Client
	host2dev    string
	dev2host    string
	name        string
	pipeReader  *io.PipeReader
	pipeWriter  *io.PipeWriter
}

// DialMQTTBridge connects to broker and wires host2dev/dev2host topics.
// baseTopic/host2dev and baseTopic/dev2host are derived from baseTopic.
func DialMQTTBridge(broker, baseTopic, clientID string) (*MQTTBridge, error) {
	if clientID == "" {
		clientID = fmt.Sprintf("meshcore-bridge-%d", time.Now().UnixNano())
	}

	pr, pw := io.Pipe()
	b := &MQTTBridge{
		host2dev:   baseTopic + "/host2dev",
		dev2host:   baseTopic + "/dev2host",
		name:       fmt.Sprintf("mqtt:%s/%s", broker, baseTopic),
		pipeReader: pr,
		pipeWriter: pw,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(b.onConnectionLost).
		SetOnConnectHandler(b.onConnect)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("streamio: mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("streamio: mqtt connect to %s: %w", broker, err)
	}
	b.client = client

	return b, nil
}

func (b *MQTTBridge) onConnect(client mqtt.Client) {
	client.Subscribe(b.dev2host, 1, b.onMessage)
}

func (b *MQTTBridge) onConnectionLost(_ mqtt.Client, err error) {
	b.pipeWriter.CloseWithError(fmt.Errorf("streamio: mqtt connection lost: %w", err))
}

func (b *MQTTBridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	decoded, err := base64.StdEncoding.DecodeString(string(msg.Payload()))
	if err != nil {
		return
	}
	b.pipeWriter.Write(decoded)
}

// Read returns bytes received on dev2host, decoded from base64.
func (b *MQTTBridge) Read(p []byte) (int, error) {
	return b.pipeReader.Read(p)
}

// Write base64-encodes p and publishes it to host2dev.
func (b *MQTTBridge) Write(p []byte) (int, error) {
	encoded := base64.StdEncoding.EncodeToString(p)
	token := b.client.Publish(b.host2dev, 1, false, encoded)
	if !token.WaitTimeout(connectTimeout) {
		return 0, fmt.Errorf("streamio: mqtt publish to %s: timeout", b.host2dev)
	}
	if err := token.Error(); err != nil {
		return 0, fmt.Errorf("streamio: mqtt publish to %s: %w", b.host2dev, err)
	}
	return len(p), nil
}

// Close disconnects the MQTT client and unblocks any pending Read.
func (b *MQTTBridge) Close() error {
	b.client.Disconnect(250)
	return b.pipeWriter.Close()
}

// Name returns the broker/topic diagnostic identifier.
func (b *MQTTBridge) Name() string { return b.name }
