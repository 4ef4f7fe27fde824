//go:build windows

package simulate

import (
	"errors"
	"os"
)

// ErrNotSupported is returned when PTY operations are attempted on
// Windows; there the simulate command works only over its default
// in-process pipe.
var ErrNotSupported = errors.New("PTY simulation is not supported on Windows; run simulate without --pty to use the in-process pipe instead")

// PTY represents a pseudo-terminal pair. On Windows, this is a stub
// that returns errors for all operations.
type PTY struct {
	Master    *os.File
	Slave     *os.File
	SlavePath string
}

// OpenPTY always returns ErrNotSupported on Windows.
func OpenPTY() (*PTY, error) {
	return nil, ErrNotSupported
}

// Close closes both ends of the PTY.
func (p *PTY) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.Slave != nil {
		if e := p.Slave.Close(); e != nil {
			err = e
		}
	}
	if p.Master != nil {
		if e := p.Master.Close(); e != nil {
			err = e
		}
	}
	return err
}

// CreateSymlink always returns ErrNotSupported on Windows.
func (p *PTY) CreateSymlink(_ string) error {
	return ErrNotSupported
}
