package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// readChunkSize bounds each individual stream read, sized generously
// relative to a typical frame.
const readChunkSize = 2048

// Stream is the duplex byte-stream abstraction the transport depends
// on (spec.md §6.1): read, write, and close, with no framing of its
// own. go.bug.st/serial ports, net.Conn (including either end of a
// net.Pipe), and an MQTT-bridged pipe all satisfy it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Named is an optional interface a Stream may implement to report an
// opaque diagnostic identifier (spec.md §6.1).
type Named interface {
	Name() string
}

// Transport owns a duplex byte stream, drives the read loop, and
// presents a frame-oriented interface on top of it (spec.md §4.2): a
// Connect/readLoop/Close lifecycle generalized from any one Stream
// implementation to the Stream interface above.
type Transport struct {
	writeMu sync.Mutex // write-exclusion lock, spec.md §5
	cmdMu   sync.Mutex // serialises SendCommand callers on the single pending slot
	mu      sync.Mutex // guards conn/connected/cancel/done below

	conn      Stream
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}

	codec      *meshcore.Codec
	correlator *Correlator
	bus        *EventBus
	observer   Observer
}

// New constructs a Transport with no active stream. observer may be
// nil, in which case frame/error hooks are no-ops.
func New(observer Observer) *Transport {
	if observer == nil {
		observer = NopObserver{}
	}
	t := &Transport{
		codec:      meshcore.NewCodec(),
		correlator: NewCorrelator(),
		bus:        NewEventBus(),
		observer:   observer,
	}
	t.codec.OnOverflow = func(o *meshcore.BufferOverflow) {
		t.observer.OnError(o)
	}
	return t
}

// Connect acquires conn and starts the read loop. It returns
// immediately after the goroutine is launched; it does not wait for
// the first byte (the stream is already open by the time a Stream
// value is constructed, matching streamio's dial-then-pass-in
// convention).
func (t *Transport) Connect(ctx context.Context, conn Stream) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}
	if conn == nil {
		return &meshcore.InvalidArgument{Name: "conn", Reason: "must not be nil"}
	}

	readCtx, cancel := context.WithCancel(ctx)
	t.conn = conn
	t.connected = true
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.readLoop(readCtx, conn, t.done)
	return nil
}

// Disconnect signals the read loop to stop and releases the stream.
// Idempotent.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	conn := t.conn
	cancel := t.cancel
	done := t.done
	t.connected = false
	t.conn = nil
	t.mu.Unlock()

	cancel()
	var closeErr error
	if conn != nil {
		closeErr = conn.Close()
	}
	<-done

	t.correlator.Abort(&meshcore.NotConnected{})
	t.bus.Shutdown()

	if closeErr != nil {
		return &meshcore.IoError{Kind: "close", Err: closeErr}
	}
	return nil
}

// Subscribe returns a live feed of parsed outbound frames that did not
// consume the pending request slot, plus a terminal transport error if
// the read loop stops.
func (t *Transport) Subscribe() *Subscription {
	return t.bus.Subscribe()
}

// SendFrame serialises f and writes it to the stream under the
// write-exclusion lock.
func (t *Transport) SendFrame(f meshcore.Frame) error {
	t.mu.Lock()
	conn := t.conn
	connected := t.connected
	t.mu.Unlock()

	if !connected || conn == nil {
		return &meshcore.NotConnected{}
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := conn.Write(meshcore.Encode(f)); err != nil {
		return &meshcore.IoError{Kind: "write", Err: err}
	}
	return nil
}

// SendCommand builds an inbound frame with payload[0] = cmd followed by
// body, issues it, and awaits the first matching outbound reply via the
// correlator. Concurrent callers are served one at a time. It fails with
// Timeout, Cancelled, or whatever error the correlator was aborted with;
// ctx also bounds a write that is blocked on the stream.
func (t *Transport) SendCommand(ctx context.Context, cmd meshcore.CommandByte, body []byte) (meshcore.Frame, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	pending, err := t.correlator.Submit(cmd)
	if err != nil {
		return meshcore.Frame{}, err
	}

	payload := make([]byte, 1+len(body))
	payload[0] = byte(cmd)
	copy(payload[1:], body)

	sent := make(chan error, 1)
	go func() {
		sent <- t.SendFrame(meshcore.Frame{Start: meshcore.FrameStartInbound, Payload: payload})
	}()
	select {
	case err := <-sent:
		if err != nil {
			t.correlator.release(pending)
			return meshcore.Frame{}, err
		}
	case <-ctx.Done():
		// The write is still blocked; Await reports Timeout or Cancelled
		// and frees the pending slot.
	}

	return t.correlator.Await(ctx, pending)
}

// AwaitPush blocks until a published event satisfies match, ctx is
// cancelled, or ctx's deadline expires. It is the second phase of the
// two-phase long-latency pattern in spec.md §4.3: the caller first gets
// a RESP_CODE_SENT ack back from SendCommand, computes a deadline from
// its suggested timeout, then calls AwaitPush to wait for the final
// push frame, which never touches the correlator's pending slot.
func (t *Transport) AwaitPush(ctx context.Context, match func(meshcore.Frame) bool) (meshcore.Frame, error) {
	sub := t.Subscribe()
	defer sub.Close()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return meshcore.Frame{}, &meshcore.NotConnected{}
			}
			if ev.Err != nil {
				return meshcore.Frame{}, ev.Err
			}
			if match(ev.Frame) {
				return ev.Frame, nil
			}
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				deadline, _ := ctx.Deadline()
				return meshcore.Frame{}, &meshcore.Timeout{Deadline: deadline.Format(time.RFC3339Nano)}
			}
			return meshcore.Frame{}, &meshcore.Cancelled{}
		}
	}
}

// readLoop repeatedly reads a bounded chunk from conn, feeds it to the
// frame codec, and for each emitted frame invokes the observer hook
// then offers the frame to the correlator, publishing it to event
// subscribers if the correlator does not consume it (spec.md §4.2).
func (t *Transport) readLoop(ctx context.Context, conn Stream, done chan struct{}) {
	defer close(done)

	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(buf)
		if n > 0 {
			for _, f := range t.codec.Push(buf[:n]) {
				t.observer.OnFrame(f)
				if !t.correlator.Offer(f) {
					t.bus.Publish(Event{Frame: f})
				}
			}
		}
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			wrapped := &meshcore.IoError{Kind: "read", Err: err}
			t.observer.OnError(wrapped)
			t.correlator.Abort(wrapped)
			t.bus.Publish(Event{Err: wrapped})
			return
		}
	}
}

// Republish hands f to event subscribers directly. It exists for
// command-surface state machines (e.g. contact enumeration, spec.md
// §4.6) that can receive an unrelated frame through the correlator's
// pending slot per the "any non-push frame goes to the pending slot,
// regardless of whether it was expected" routing policy (spec.md §4.3);
// such a caller recognises the frame doesn't belong to its own
// operation and redirects it here instead of silently discarding it.
func (t *Transport) Republish(f meshcore.Frame) {
	t.bus.Publish(Event{Frame: f})
}

// IsConnected reports whether a stream is currently attached.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Name returns the underlying stream's diagnostic identifier, or a
// generic placeholder if it does not implement Named or none is
// attached.
func (t *Transport) Name() string {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return "meshcore:disconnected"
	}
	if n, ok := conn.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("meshcore:%T", conn)
}
