// Package streamio provides concrete transport.Stream implementations:
// serial, TCP, an MQTT-bridged duplex stream, and an in-memory pipe for
// the simulate command. None of these packages are imported by
// pkg/meshcore or its subpackages; they are collaborators wired in by
// internal/cli.
package streamio

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// readTimeout bounds each blocking serial read so the transport's read
// loop can observe context cancellation promptly.
const readTimeout = 100 * time.Millisecond

// Serial wraps a go.bug.st/serial port as a transport.Stream.
type Serial struct {
	port serial.Port
	name string
}

// OpenSerial opens portName at baud and returns a ready-to-use Stream:
// 8N1, with an explicit read timeout so reads return promptly enough
// for the caller to observe context cancellation.
func OpenSerial(portName string, baud int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("streamio: open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("streamio: set read timeout on %s: %w", portName, err)
	}

	return &Serial{port: port, name: fmt.Sprintf("serial:%s", portName)}, nil
}

func (s *Serial) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *Serial) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *Serial) Close() error                { return s.port.Close() }
func (s *Serial) Name() string                { return s.name }

// ListSerialPorts lists connection-candidate serial port names. No CLI
// command calls it.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("streamio: list serial ports: %w", err)
	}
	return ports, nil
}
