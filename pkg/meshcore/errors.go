package meshcore

import (
	"fmt"
)

// NotConnected indicates an operation was attempted while the transport
// has no active stream.
type NotConnected struct{}

func (e *NotConnected) Error() string { return "meshcore: not connected" }

// IoError wraps a failure from the underlying byte stream.
type IoError struct {
	Kind string
	Err  error
}

func (e *IoError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("meshcore: io error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("meshcore: io error: %v", e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// Timeout indicates no reply arrived before the caller's deadline.
type Timeout struct {
	Deadline string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("meshcore: timeout waiting for reply (deadline %s)", e.Deadline)
}

// Cancelled indicates the caller's context was cancelled before completion.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "meshcore: cancelled" }

// ProtocolError is returned when the device answers with RESP_CODE_ERR or
// an unexpected response code for the command that was sent.
type ProtocolError struct {
	Command byte
	Status  byte
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("meshcore: protocol error: command=0x%02x status=%s (0x%02x): %s",
		e.Command, StatusCode(e.Status), e.Status, e.Message)
}

// CodecError indicates a payload did not match the expected layout for a
// record type.
type CodecError struct {
	RecordType string
	Length     int
	Reason     string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("meshcore: codec error decoding %s (len=%d): %s", e.RecordType, e.Length, e.Reason)
}

// InvalidArgument indicates a caller-supplied argument failed validation
// before any bytes were put on the wire.
type InvalidArgument struct {
	Name   string
	Reason string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("meshcore: invalid argument %q: %s", e.Name, e.Reason)
}

// BufferOverflow indicates the frame codec's reassembly buffer exceeded
// its bound and was forcibly resynchronised.
type BufferOverflow struct {
	BufferedBytes int
	Limit         int
}

func (e *BufferOverflow) Error() string {
	return fmt.Sprintf("meshcore: frame buffer overflow: %d bytes buffered, limit %d", e.BufferedBytes, e.Limit)
}

// UnknownCode wraps a response code the decoder does not recognise. It is
// returned instead of rejecting the frame, per spec: unrecognised codes
// must not be treated as malformed.
type UnknownCode byte

func (e UnknownCode) Error() string {
	return fmt.Sprintf("meshcore: unknown response code 0x%02x", byte(e))
}
