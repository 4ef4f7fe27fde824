package client

import (
	"context"
	"encoding/binary"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/transport"
)

type fakeDevice struct {
	conn net.Conn
}

func newTestClient(t *testing.T) (*Client, *fakeDevice) {
	t.Helper()
	clientConn, deviceConn := net.Pipe()

	tr := transport.New(nil)
	if err := tr.Connect(context.Background(), clientConn); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { tr.Disconnect() })

	return New(tr), &fakeDevice{conn: deviceConn}
}

func (d *fakeDevice) sendFrame(f meshcore.Frame) error {
	_, err := d.conn.Write(meshcore.Encode(f))
	return err
}

func (d *fakeDevice) readCommand(t *testing.T) meshcore.Frame {
	t.Helper()
	buf := make([]byte, 4096)
	codec := meshcore.NewCodec()
	for {
		n, err := d.conn.Read(buf)
		if err != nil {
			t.Fatalf("device read: %v", err)
		}
		if frames := codec.Push(buf[:n]); len(frames) > 0 {
			return frames[0]
		}
	}
}

func TestCheckErrInvalidCommandIncludesSentPayload(t *testing.T) {
	body := []byte{0xaa, 0xbb, 0xcc}
	f := meshcore.Frame{
		Start:   meshcore.FrameStartOutbound,
		Payload: []byte{byte(meshcore.RespCodeErr), byte(meshcore.StatusInvalidCommand)},
	}

	err := checkErr(meshcore.CmdSendTxtMsg, body, f)
	perr, ok := err.(*meshcore.ProtocolError)
	if !ok {
		t.Fatalf("expected *meshcore.ProtocolError, got %T", err)
	}
	if !strings.Contains(perr.Message, "aabbcc") {
		t.Errorf("expected message to include sent payload as hex, got %q", perr.Message)
	}
	if !strings.Contains(perr.Message, "calling pattern should be reviewed") {
		t.Errorf("expected message to note the calling pattern should be reviewed, got %q", perr.Message)
	}
}

func TestQueryDeviceInfo(t *testing.T) {
	c, dev := newTestClient(t)

	want := meshcore.DeviceInfo{
		FirmwareVer:      3,
		MaxContacts:      100,
		MaxGroupChannels: 8,
		DeviceID:         "abc123",
		FirmwareBuild:    "2026.01.01",
		HardwareModel:    "T1000-E",
		SerialNumber:     "SN-1",
	}

	go func() {
		cmd := dev.readCommand(t)
		if cmd.Command() != meshcore.CmdDeviceQuery {
			t.Errorf("unexpected command 0x%02x", byte(cmd.Command()))
		}
		payload := append([]byte{byte(meshcore.RespCodeDeviceInfo)}, meshcore.EncodeDeviceInfo(want)...)
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: payload})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := c.QueryDeviceInfo(ctx)
	if err != nil {
		t.Fatalf("QueryDeviceInfo: %v", err)
	}
	if got.DeviceID != want.DeviceID || got.HardwareModel != want.HardwareModel {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEnumerateContactsStartThenStream(t *testing.T) {
	c, dev := newTestClient(t)

	ctA := meshcore.Contact{AdvName: "alice", Type: meshcore.ContactTypeChat}
	ctB := meshcore.Contact{AdvName: "bob", Type: meshcore.ContactTypeRepeater}

	go func() {
		dev.readCommand(t) // CMD_CONTACT_LIST_GET
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: []byte{byte(meshcore.RespCodeContactsStart)}})

		dev.readCommand(t) // CMD_SYNC_NEXT_MESSAGE
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: append([]byte{byte(meshcore.RespCodeContact)}, meshcore.EncodeContact(ctA)...),
		})

		dev.readCommand(t)
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: append([]byte{byte(meshcore.RespCodeContact)}, meshcore.EncodeContact(ctB)...),
		})

		dev.readCommand(t)
		eocPayload := make([]byte, 5)
		eocPayload[0] = byte(meshcore.RespCodeEndOfContacts)
		binary.LittleEndian.PutUint32(eocPayload[1:5], 42)
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: eocPayload})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	contacts, cursor, err := c.EnumerateContacts(ctx, 0)
	if err != nil {
		t.Fatalf("EnumerateContacts: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if contacts[0].AdvName != "alice" || contacts[1].AdvName != "bob" {
		t.Errorf("unexpected contact order: %+v", contacts)
	}
	if cursor != 42 {
		t.Errorf("expected cursor 42, got %d", cursor)
	}
}

func TestEnumerateContactsDirectContact(t *testing.T) {
	c, dev := newTestClient(t)
	ct := meshcore.Contact{AdvName: "solo"}

	go func() {
		dev.readCommand(t)
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: append([]byte{byte(meshcore.RespCodeContact)}, meshcore.EncodeContact(ct)...),
		})

		dev.readCommand(t)
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: []byte{byte(meshcore.RespCodeNoMoreMessages)}})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	contacts, _, err := c.EnumerateContacts(ctx, 0)
	if err != nil {
		t.Fatalf("EnumerateContacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].AdvName != "solo" {
		t.Errorf("unexpected contacts: %+v", contacts)
	}
}

func TestEnumerateContactsNoCursorYieldsEmpty(t *testing.T) {
	c, dev := newTestClient(t)

	go func() {
		dev.readCommand(t) // CMD_CONTACT_LIST_GET
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: []byte{byte(meshcore.RespCodeErr), byte(meshcore.StatusInvalidParam)},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	contacts, cursor, err := c.EnumerateContacts(ctx, 0)
	if err != nil {
		t.Fatalf("EnumerateContacts: %v", err)
	}
	if len(contacts) != 0 {
		t.Errorf("expected no contacts, got %+v", contacts)
	}
	if cursor != 0 {
		t.Errorf("expected cursor unchanged at 0, got %d", cursor)
	}
}

func TestSendToContact(t *testing.T) {
	c, dev := newTestClient(t)

	go func() {
		cmd := dev.readCommand(t)
		if cmd.Command() != meshcore.CmdSendTxtMsg {
			t.Errorf("unexpected command 0x%02x", byte(cmd.Command()))
		}
		ack := make([]byte, 6)
		ack[0] = byte(meshcore.RespCodeSent)
		binary.LittleEndian.PutUint32(ack[2:6], 7)
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: ack})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var prefix [6]byte
	ackResult, err := c.SendToContact(ctx, prefix, 0, "hello")
	if err != nil {
		t.Fatalf("SendToContact: %v", err)
	}
	if ackResult.Tag != 7 {
		t.Errorf("expected tag 7, got %d", ackResult.Tag)
	}
}

func TestSendToContactRejectsEmptyContent(t *testing.T) {
	c, _ := newTestClient(t)
	var prefix [6]byte
	if _, err := c.SendToContact(context.Background(), prefix, 0, ""); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestDiscoverPathTwoPhase(t *testing.T) {
	c, dev := newTestClient(t)

	go func() {
		cmd := dev.readCommand(t)
		if cmd.Command() != meshcore.CmdSendPathDiscoveryReq {
			t.Errorf("unexpected command 0x%02x", byte(cmd.Command()))
		}
		ack := make([]byte, 10)
		ack[0] = byte(meshcore.RespCodeSent)
		binary.LittleEndian.PutUint32(ack[6:10], 500)
		dev.sendFrame(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: ack})

		time.Sleep(10 * time.Millisecond)
		result := meshcore.EncodePathDiscoveryResult(meshcore.PathDiscoveryResult{InPath: []byte{0x01}, OutPath: []byte{0x02, 0x03}})
		dev.sendFrame(meshcore.Frame{
			Start:   meshcore.FrameStartOutbound,
			Payload: append([]byte{byte(meshcore.RespCodePathResponse)}, result...),
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var target [32]byte
	result, err := c.DiscoverPath(ctx, target)
	if err != nil {
		t.Fatalf("DiscoverPath: %v", err)
	}
	if len(result.InPath) != 1 || len(result.OutPath) != 2 {
		t.Errorf("unexpected path result: %+v", result)
	}
}

func TestEnsureHashtagChannelRejectsNonHashtag(t *testing.T) {
	c, _ := newTestClient(t)
	if _, err := c.EnsureHashtagChannel(context.Background(), "general"); err == nil {
		t.Error("expected error for non-hashtag channel name")
	}
}
