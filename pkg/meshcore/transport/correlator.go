package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// pendingRequest is the correlator's single slot (spec.md §4.3: "at
// most one pending single-reply request exists at a time").
type pendingRequest struct {
	cmd    meshcore.CommandByte
	result chan correlatorResult
}

type correlatorResult struct {
	frame meshcore.Frame
	err   error
}

// ErrCorrelatorBusy is returned by Submit when a pending request is
// already in flight. Transport.SendCommand serialises its callers before
// submitting, so this indicates a caller drove the Correlator without
// that discipline rather than a protocol condition.
var ErrCorrelatorBusy = errors.New("meshcore: a request is already pending on this transport")

// Correlator binds an outbound frame from the device to the caller
// that issued the matching inbound command. It is strictly FIFO-of-one
// (spec.md §5): submitting a second request while one is pending fails
// fast rather than queuing.
type Correlator struct {
	mu      sync.Mutex
	pending *pendingRequest
}

// NewCorrelator constructs an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Submit opens the pending slot for cmd. The returned pendingRequest
// must be passed to Await exactly once.
func (c *Correlator) Submit(cmd meshcore.CommandByte) (*pendingRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, ErrCorrelatorBusy
	}
	p := &pendingRequest{cmd: cmd, result: make(chan correlatorResult, 1)}
	c.pending = p
	return p, nil
}

// Offer delivers an inbound outbound-frame to the pending slot if one
// exists and the frame's response code is not a streaming/push code.
// It reports whether the frame was consumed; the caller (the read
// loop) publishes unconsumed frames to event subscribers instead.
func (c *Correlator) Offer(f meshcore.Frame) bool {
	if len(f.Payload) == 0 {
		return false
	}
	if meshcore.ResponseCode(f.Payload[0]).IsPush() {
		return false
	}

	c.mu.Lock()
	p := c.pending
	if p == nil {
		c.mu.Unlock()
		return false
	}
	c.pending = nil
	c.mu.Unlock()

	p.result <- correlatorResult{frame: f}
	return true
}

// Await blocks until a frame is offered for p, ctx is cancelled, or
// ctx's deadline expires.
func (c *Correlator) Await(ctx context.Context, p *pendingRequest) (meshcore.Frame, error) {
	select {
	case r := <-p.result:
		return r.frame, r.err
	case <-ctx.Done():
		c.release(p)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			deadline, _ := ctx.Deadline()
			return meshcore.Frame{}, &meshcore.Timeout{Deadline: deadline.Format(time.RFC3339Nano)}
		}
		return meshcore.Frame{}, &meshcore.Cancelled{}
	}
}

func (c *Correlator) release(p *pendingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == p {
		c.pending = nil
	}
}

// Abort fails any pending request with err. Used when the read loop
// observes a stream error and is about to terminate: an in-flight
// caller must not hang forever waiting on a slot nothing will ever
// fill again.
func (c *Correlator) Abort(err error) {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p != nil {
		p.result <- correlatorResult{err: err}
	}
}
