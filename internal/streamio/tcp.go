package streamio

import (
	"context"
	"fmt"
	"net"
	"time"
)

// dialTimeout bounds the initial connection attempt.
const dialTimeout = 10 * time.Second

// TCP wraps a net.Conn as a transport.Stream.
type TCP struct {
	conn net.Conn
	name string
}

// DialTCP connects to host:port using a context-aware dialer with a
// fixed timeout.
func DialTCP(ctx context.Context, host string, port int) (*TCP, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	dialer := net.Dialer{Timeout: dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("streamio: dial %s: %w", addr, err)
	}

	return &TCP{conn: conn, name: fmt.Sprintf("tcp:%s", addr)}, nil
}

func (t *TCP) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *TCP) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *TCP) Close() error                { return t.conn.Close() }
func (t *TCP) Name() string                { return t.name }
