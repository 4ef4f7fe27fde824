package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// fakeDevice wraps one end of a net.Pipe to play the device side of the
// protocol in tests: read whatever the transport sends, write back
// whatever frames the test script prepares.
type fakeDevice struct {
	conn net.Conn
}

func newFakeDevicePair(t *testing.T) (tr *Transport, dev *fakeDevice) {
	t.Helper()
	clientConn, deviceConn := net.Pipe()

	tr = New(nil)
	if err := tr.Connect(context.Background(), clientConn); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { tr.Disconnect() })

	return tr, &fakeDevice{conn: deviceConn}
}

func (d *fakeDevice) sendFrame(f meshcore.Frame) error {
	_, err := d.conn.Write(meshcore.Encode(f))
	return err
}

func (d *fakeDevice) readCommand() (meshcore.Frame, error) {
	buf := make([]byte, 4096)
	codec := meshcore.NewCodec()
	for {
		n, err := d.conn.Read(buf)
		if err != nil {
			return meshcore.Frame{}, err
		}
		if frames := codec.Push(buf[:n]); len(frames) > 0 {
			return frames[0], nil
		}
	}
}

func TestTransportSendCommandRoundTrip(t *testing.T) {
	tr, dev := newFakeDevicePair(t)

	go func() {
		cmd, err := dev.readCommand()
		if err != nil {
			return
		}
		if cmd.Command() != meshcore.CmdDeviceQuery {
			t.Errorf("device saw unexpected command 0x%02x", byte(cmd.Command()))
		}
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: []byte{byte(meshcore.RespCodeOk)},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := tr.SendCommand(ctx, meshcore.CmdDeviceQuery, nil)
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if reply.Code() != meshcore.RespCodeOk {
		t.Errorf("expected RESP_CODE_OK, got %v", reply.Code())
	}
}

func TestTransportSendCommandTimeout(t *testing.T) {
	tr, _ := newFakeDevicePair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := tr.SendCommand(ctx, meshcore.CmdDeviceQuery, nil)
	var timeout *meshcore.Timeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected *meshcore.Timeout, got %v", err)
	}
}

func TestTransportPushEventsRouteToSubscribers(t *testing.T) {
	tr, dev := newFakeDevicePair(t)

	sub := tr.Subscribe()
	defer sub.Close()

	push := meshcore.Frame{
		Start:   meshcore.FrameStartOutbound,
		Payload: append([]byte{byte(meshcore.PushCodeStatusResponse)}, 0x01, 0x02, 0x03),
	}
	if err := dev.sendFrame(push); err != nil {
		t.Fatalf("sendFrame: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Err != nil {
			t.Fatalf("unexpected event error: %v", ev.Err)
		}
		if ev.Frame.Code() != meshcore.PushCodeStatusResponse {
			t.Errorf("expected PUSH_CODE_STATUS_RESPONSE, got %v", ev.Frame.Code())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push event")
	}
}

func TestTransportTwoPhaseAwaitPush(t *testing.T) {
	tr, dev := newFakeDevicePair(t)

	go func() {
		cmd, err := dev.readCommand()
		if err != nil {
			return
		}
		if cmd.Command() != meshcore.CmdSendPathDiscoveryReq {
			return
		}
		ack := make([]byte, 10)
		ack[0] = byte(meshcore.RespCodeSent)
		ack[6] = 0xe8
		ack[7] = 0x03 // 1000ms LE
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: ack})

		time.Sleep(10 * time.Millisecond)
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: []byte{byte(meshcore.PushCodeTraceData), 0x01, 0x02},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ack, err := tr.SendCommand(ctx, meshcore.CmdSendPathDiscoveryReq, nil)
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if ack.Code() != meshcore.RespCodeSent {
		t.Fatalf("expected RESP_CODE_SENT ack, got %v", ack.Code())
	}

	ms, ok := meshcore.SuggestedTimeout(ack.Payload)
	if !ok {
		t.Fatal("expected suggested timeout in ack payload")
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Duration(float64(ms)*1.2)*time.Millisecond)
	defer waitCancel()

	final, err := tr.AwaitPush(waitCtx, func(f meshcore.Frame) bool {
		return f.Code() == meshcore.PushCodeTraceData
	})
	if err != nil {
		t.Fatalf("AwaitPush: %v", err)
	}
	if final.Code() != meshcore.PushCodeTraceData {
		t.Errorf("expected PUSH_CODE_TRACE_DATA, got %v", final.Code())
	}
}

func TestTransportDisconnectIsIdempotent(t *testing.T) {
	tr, _ := newFakeDevicePair(t)
	if err := tr.Disconnect(); err != nil {
		t.Fatalf("first Disconnect: %v", err)
	}
	if err := tr.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

func TestTransportSendCommandWhenNotConnected(t *testing.T) {
	tr := New(nil)
	_, err := tr.SendCommand(context.Background(), meshcore.CmdDeviceQuery, nil)
	var notConnected *meshcore.NotConnected
	if !errors.As(err, &notConnected) {
		t.Fatalf("expected *meshcore.NotConnected, got %v", err)
	}
}
