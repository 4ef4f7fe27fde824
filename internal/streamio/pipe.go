package streamio

import "net"

// Pipe wraps one end of a net.Pipe as a named transport.Stream, for the
// CLI's simulate command where an in-process fake device sits on the
// other end.
type Pipe struct {
	conn net.Conn
	name string
}

// NewPipePair returns two connected Pipe streams: one for the client
// (transport) side, one for the simulated device side.
func NewPipePair() (client *Pipe, device *Pipe) {
	a, b := net.Pipe()
	return &Pipe{conn: a, name: "pipe:client"}, &Pipe{conn: b, name: "pipe:device"}
}

func (p *Pipe) Read(b []byte) (int, error)  { return p.conn.Read(b) }
func (p *Pipe) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *Pipe) Close() error                { return p.conn.Close() }
func (p *Pipe) Name() string                { return p.name }
