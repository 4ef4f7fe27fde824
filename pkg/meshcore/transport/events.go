// Package transport owns the duplex byte stream, the reassembly read
// loop, and the request correlator that binds an outbound frame to the
// caller that issued the matching inbound command.
package transport

import (
	"sync"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// Event carries a parsed outbound frame, or a terminal transport error,
// to a subscriber. Exactly one of Frame or Err is set.
type Event struct {
	Frame meshcore.Frame
	Err   error
}

// subscriberCapacity bounds the buffered channel handed to each
// subscriber.
const subscriberCapacity = 100

// Subscription is a live event feed. Call Close when done; it is safe
// to call more than once.
type Subscription struct {
	ch     chan Event
	bus    *EventBus
	id     uint64
	closed bool
}

// Events returns the channel to range over. It is closed when the
// subscription is closed or the transport shuts down.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
}

// EventBus fans parsed push frames and transport-lifecycle errors out
// to subscribers without letting a slow subscriber stall the reader
// task (spec.md §5 backpressure: bounded queue, drop-oldest policy).
type EventBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Event
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a new subscriber and returns its handle.
func (b *EventBus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberCapacity)
	b.subs[id] = ch
	return &Subscription{ch: ch, bus: b, id: id}
}

func (b *EventBus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
}

// Publish delivers ev to every current subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full has the oldest
// queued event dropped to make room, so the reader task never stalls
// on a slow consumer.
func (b *EventBus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Shutdown closes every live subscription's channel.
func (b *EventBus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Observer receives every parsed outbound frame before correlator
// routing (spec.md §4.2's `on_frame` hook), plus terminal transport
// errors. Implementations must not block or retain the frame's
// backing slice past the call.
type Observer interface {
	OnFrame(f meshcore.Frame)
	OnError(err error)
}

// NopObserver implements Observer with no-op methods, the default used
// when a caller does not supply one.
type NopObserver struct{}

func (NopObserver) OnFrame(meshcore.Frame) {}
func (NopObserver) OnError(error)          {}
