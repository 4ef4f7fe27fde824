package meshcore

import (
	"bytes"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	f := Frame{Start: FrameStartInbound, Payload: []byte{byte(CmdDeviceQuery), 0x08}}

	c := NewCodec()
	frames := c.Push(Encode(f))

	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Start != f.Start || !bytes.Equal(frames[0].Payload, f.Payload) {
		t.Errorf("round trip mismatch: got %+v, want %+v", frames[0], f)
	}
}

func TestCodecMultipleFrames(t *testing.T) {
	frames := []Frame{
		{Start: FrameStartInbound, Payload: []byte{0x01, 0x02, 0x03}},
		{Start: FrameStartOutbound, Payload: []byte{0x09}},
		{Start: FrameStartInbound, Payload: make([]byte, 200)},
	}

	var wire []byte
	for _, f := range frames {
		wire = append(wire, Encode(f)...)
	}

	c := NewCodec()
	got := c.Push(wire)
	if len(got) != len(frames) {
		t.Fatalf("expected %d frames, got %d", len(frames), len(got))
	}
	for i, f := range frames {
		if got[i].Start != f.Start || !bytes.Equal(got[i].Payload, f.Payload) {
			t.Errorf("frame %d mismatch: got %+v, want %+v", i, got[i], f)
		}
	}
}

// TestCodecSplitInsensitivity verifies property 2 from spec.md §8: for
// any split point, Push(a) ++ Push(b) yields the same frames, in the
// same order, as a single Push(a++b).
func TestCodecSplitInsensitivity(t *testing.T) {
	f1 := Encode(Frame{Start: FrameStartInbound, Payload: []byte("hello")})
	f2 := Encode(Frame{Start: FrameStartOutbound, Payload: []byte("world!")})
	whole := append(append([]byte{}, f1...), f2...)

	for split := 0; split <= len(whole); split++ {
		c := NewCodec()
		got := append(c.Push(whole[:split]), c.Push(whole[split:])...)

		c2 := NewCodec()
		want := c2.Push(whole)

		if len(got) != len(want) {
			t.Fatalf("split=%d: frame count mismatch: got %d, want %d", split, len(got), len(want))
		}
		for i := range want {
			if got[i].Start != want[i].Start || !bytes.Equal(got[i].Payload, want[i].Payload) {
				t.Errorf("split=%d frame %d mismatch: got %+v, want %+v", split, i, got[i], want[i])
			}
		}
	}
}

// TestCodecResynchronisation verifies property 3: arbitrary prefix noise
// containing no direction markers is silently dropped.
func TestCodecResynchronisation(t *testing.T) {
	noise := []byte{0x00, 0xFF, 0x7A, 0x01, 0x02}
	valid := Encode(Frame{Start: FrameStartInbound, Payload: []byte("payload")})

	c := NewCodec()
	got := c.Push(append(append([]byte{}, noise...), valid...))

	if len(got) != 1 {
		t.Fatalf("expected 1 frame after noise, got %d", len(got))
	}
	if !bytes.Equal(got[0].Payload, []byte("payload")) {
		t.Errorf("payload mismatch: got %v", got[0].Payload)
	}
}

// TestCodecBadLengthResyncs verifies that a direction marker followed by
// an implausible length is treated as desynchronisation rather than
// stalling forever waiting for bytes that will never arrive.
func TestCodecBadLengthResyncs(t *testing.T) {
	bad := []byte{FrameStartInbound, 0xFF, 0xFF} // length = 65535 > MaxPayload
	valid := Encode(Frame{Start: FrameStartOutbound, Payload: []byte{0x01}})

	c := NewCodec()
	got := c.Push(append(append([]byte{}, bad...), valid...))

	if len(got) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(got))
	}
	if got[0].Start != FrameStartOutbound {
		t.Errorf("expected outbound frame, got start=0x%02x", got[0].Start)
	}
}

// TestCodecIncompleteFrameWaits verifies step 4/6 of the reassembly
// algorithm: a partially buffered frame never yields early.
func TestCodecIncompleteFrameWaits(t *testing.T) {
	full := Encode(Frame{Start: FrameStartInbound, Payload: []byte("0123456789")})

	c := NewCodec()
	for i := 0; i < len(full)-1; i++ {
		if got := c.Push(full[i : i+1]); len(got) != 0 {
			t.Fatalf("unexpected frame emitted before input complete, at byte %d: %+v", i, got)
		}
	}
	got := c.Push(full[len(full)-1:])
	if len(got) != 1 {
		t.Fatalf("expected final byte to complete the frame, got %d frames", len(got))
	}
}

// TestCodecBoundedBuffer verifies property 4: the buffer never exceeds
// MaxBuffer regardless of input length, and an overflow is reported. A
// stuck partial frame (valid header, payload never arrives) at the head
// blocks parsing, so continued arrivals behind it must still be bounded.
func TestCodecBoundedBuffer(t *testing.T) {
	c := NewCodec()
	var overflowed *BufferOverflow
	c.OnOverflow = func(b *BufferOverflow) { overflowed = b }

	stuckHeader := []byte{FrameStartInbound, 0xA0, 0x0F} // claims length=4000, never delivered
	c.Push(stuckHeader)

	filler := make([]byte, 1024)
	for i := 0; i < (MaxBuffer/len(filler))*3; i++ {
		c.Push(filler)
	}

	if c.Buffered() > MaxBuffer {
		t.Errorf("buffer exceeded bound: %d > %d", c.Buffered(), MaxBuffer)
	}
	if overflowed == nil {
		t.Errorf("expected OnOverflow to be invoked")
	}
}

func TestEncodeFrameFormat(t *testing.T) {
	data := []byte("test")
	raw := Encode(Frame{Start: FrameStartInbound, Payload: data})

	if raw[0] != FrameStartInbound {
		t.Errorf("expected start byte 0x%02x, got 0x%02x", FrameStartInbound, raw[0])
	}
	if raw[1] != 0x04 || raw[2] != 0x00 {
		t.Errorf("expected little-endian length 4, got %02x%02x", raw[2], raw[1])
	}
	if !bytes.Equal(raw[3:], data) {
		t.Errorf("payload mismatch: got %v, want %v", raw[3:], data)
	}
}
