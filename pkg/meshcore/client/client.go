// Package client implements the MeshCore command surface (spec.md
// §4.4): one function per logical device operation, layered on top of
// pkg/meshcore/transport. Each function validates its arguments,
// serialises the request with a pkg/meshcore record codec, issues it
// through the transport, and dispatches on the response code.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/transport"
)

// Per-operation suggested-timeout multipliers for two-phase operations
// (spec.md §4.3 Open Question, resolved in SPEC_FULL.md §9: kept as
// named constants rather than one global multiplier).
const (
	pathDiscoveryTimeoutMultiplier = 1.2
	tracePathTimeoutMultiplier     = 1.2
	neighboursTimeoutMultiplier    = 1.6
)

// defaultCommandTimeout applies when a caller passes a context with no
// deadline of its own.
const defaultCommandTimeout = 10 * time.Second

// Client offers every operation in spec.md §4.4 on top of a Transport.
// It holds no state of its own beyond the transport it wraps; multiple
// Clients may coexist, one per device (spec.md §6.3).
type Client struct {
	t *transport.Transport
}

// New wraps an already-connected (or not-yet-connected) Transport.
func New(t *transport.Transport) *Client {
	return &Client{t: t}
}

// Transport returns the underlying transport, e.g. so a caller can
// Subscribe to raw events directly.
func (c *Client) Transport() *transport.Transport { return c.t }

// sendCommand applies defaultCommandTimeout when ctx carries no
// deadline, then delegates to the transport.
func (c *Client) sendCommand(ctx context.Context, cmd meshcore.CommandByte, body []byte) (meshcore.Frame, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCommandTimeout)
		defer cancel()
	}
	return c.t.SendCommand(ctx, cmd, body)
}

// checkErr maps a RESP_CODE_ERR reply into a *meshcore.ProtocolError.
// sentBody is the payload that was issued with cmd: for
// StatusInvalidCommand the message must include the command byte, the
// sent payload as hex, and a note that the calling pattern should be
// reviewed (spec.md §7) rather than a generic status string, since an
// InvalidCommand reply is never silently downgraded to "unsupported".
func checkErr(cmd meshcore.CommandByte, sentBody []byte, f meshcore.Frame) error {
	status := byte(meshcore.StatusUnknownError)
	if len(f.Payload) >= 2 {
		status = f.Payload[1]
	}

	msg := meshcore.StatusCode(status).String()
	if meshcore.StatusCode(status) == meshcore.StatusInvalidCommand {
		msg = fmt.Sprintf("command=0x%02x sent_payload=%x: calling pattern should be reviewed", byte(cmd), sentBody)
	}

	return &meshcore.ProtocolError{
		Command: byte(cmd),
		Status:  status,
		Message: msg,
	}
}

// unexpectedCode builds a ProtocolError for a response code the caller
// did not ask for and isn't RESP_CODE_ERR either.
func unexpectedCode(cmd meshcore.CommandByte, f meshcore.Frame) error {
	return &meshcore.ProtocolError{
		Command: byte(cmd),
		Status:  byte(meshcore.StatusUnknownError),
		Message: fmt.Sprintf("unexpected response code %v", f.Code()),
	}
}

// dispatch is the common pattern of spec.md §4.4 step 4: on ok, call
// decode; on RESP_CODE_ERR, return a ProtocolError; otherwise an
// unexpected-code ProtocolError. sentBody is the payload issued with
// cmd, threaded through to checkErr.
func dispatch[T any](cmd meshcore.CommandByte, sentBody []byte, f meshcore.Frame, ok meshcore.ResponseCode, decode func([]byte) (T, error)) (T, error) {
	var zero T
	switch f.Code() {
	case ok:
		return decode(f.Payload)
	case meshcore.RespCodeErr:
		return zero, checkErr(cmd, sentBody, f)
	default:
		return zero, unexpectedCode(cmd, f)
	}
}
