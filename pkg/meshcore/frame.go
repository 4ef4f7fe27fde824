package meshcore

import "encoding/binary"

// Frame is an indivisible protocol unit. Start identifies the direction
// (FrameStartInbound or FrameStartOutbound); Payload's first byte is the
// command byte (inbound) or response code (outbound).
type Frame struct {
	Start   byte
	Payload []byte
}

// Command returns Payload[0] interpreted as a command byte. Only
// meaningful for inbound frames.
func (f Frame) Command() CommandByte {
	if len(f.Payload) == 0 {
		return 0
	}
	return CommandByte(f.Payload[0])
}

// Code returns Payload[0] interpreted as a response code. Only
// meaningful for outbound frames.
func (f Frame) Code() ResponseCode {
	if len(f.Payload) == 0 {
		return 0
	}
	return ResponseCode(f.Payload[0])
}

// Codec parses a byte stream into Frames and serialises Frames back to
// bytes. It is the single-reader reassembly buffer described in
// spec.md §4.1: accumulate, then repeatedly try to slice a frame off the
// head, resynchronising past noise one byte at a time.
//
// Codec is not safe for concurrent use; callers must serialise Push from
// a single reader goroutine, matching the "single-reader" resource
// policy in spec.md §5.
type Codec struct {
	buf []byte
	// OnOverflow, if set, is invoked whenever the buffer bound forces a
	// truncation. It receives the BufferOverflow error; the codec
	// itself never returns errors from Push (resynchronisation and
	// overflow are both handled in-band, per spec.md §4.1's failure
	// model).
	OnOverflow func(*BufferOverflow)
}

// NewCodec returns a ready-to-use frame codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Push appends chunk to the internal buffer and returns every fully
// parsed frame that can now be extracted from the head. It never yields
// an incomplete frame, and Push(a++b) yields the same frames as
// Push(a) followed by Push(b) (split-insensitivity, spec.md §8 property 2).
func (c *Codec) Push(chunk []byte) []Frame {
	if len(chunk) > 0 {
		c.buf = append(c.buf, chunk...)
	}

	var frames []Frame
	for {
		f, ok := c.tryParseOne()
		if !ok {
			break
		}
		frames = append(frames, f)
	}

	c.enforceBound()
	return frames
}

// tryParseOne attempts to slice one frame off the head of the buffer. It
// returns ok=false when more bytes are needed; it mutates c.buf when it
// either resynchronises past a bad start byte or extracts a frame.
func (c *Codec) tryParseOne() (Frame, bool) {
	for len(c.buf) > 0 {
		start := c.buf[0]
		if start != FrameStartInbound && start != FrameStartOutbound {
			// Resynchronise: the head byte is not a direction marker.
			c.buf = c.buf[1:]
			continue
		}

		if len(c.buf) < 3 {
			return Frame{}, false
		}

		length := int(binary.LittleEndian.Uint16(c.buf[1:3]))
		if length > MaxPayload {
			// Desynchronised: drop the bogus start byte and keep
			// searching rather than waiting for an L-sized frame that
			// will never legitimately arrive.
			c.buf = c.buf[1:]
			continue
		}

		total := 3 + length
		if len(c.buf) < total {
			return Frame{}, false
		}

		payload := make([]byte, length)
		copy(payload, c.buf[3:total])
		c.buf = c.buf[total:]

		return Frame{Start: start, Payload: payload}, true
	}
	return Frame{}, false
}

// enforceBound shrinks the buffer from the head when it exceeds
// MaxBuffer, reporting a BufferOverflow via OnOverflow. This bounds
// memory under adversarial or runaway input (spec.md §4.1 step 8,
// §8 property 4).
func (c *Codec) enforceBound() {
	if len(c.buf) <= MaxBuffer {
		return
	}
	overflowed := len(c.buf) - MaxBuffer
	c.buf = c.buf[overflowed:]
	if c.OnOverflow != nil {
		c.OnOverflow(&BufferOverflow{BufferedBytes: len(c.buf) + overflowed, Limit: MaxBuffer})
	}
}

// Buffered returns the number of bytes currently held in the
// reassembly buffer, awaiting more input.
func (c *Codec) Buffered() int {
	return len(c.buf)
}

// Encode serialises a frame to the byte sequence Push would round-trip
// back into an equivalent Frame (spec.md §8 property 1).
func Encode(f Frame) []byte {
	out := make([]byte, 3+len(f.Payload))
	out[0] = f.Start
	binary.LittleEndian.PutUint16(out[1:3], uint16(len(f.Payload)))
	copy(out[3:], f.Payload)
	return out
}
