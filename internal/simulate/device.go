// Package simulate provides an in-process fake MeshCore device for
// local testing without hardware: a read-loop that decodes inbound
// frames, dispatches on the command byte, and writes back responses
// built from the same record codecs the real client uses.
package simulate

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// Config seeds the identity, contacts, and channel of a simulated
// device.
type Config struct {
	AdvertName      string
	PublicKey       [meshcore.PublicKeySize]byte
	Contacts        []meshcore.Contact
	Channel         meshcore.Channel
	MessageInterval time.Duration
	Verbose         bool
}

// DefaultConfig returns a ready-to-use simulated device configuration
// with a couple of fixed contacts and the default public channel.
func DefaultConfig() Config {
	cfg := Config{
		AdvertName:      "SimNode",
		Channel:         meshcore.PublicChannelDefault(),
		MessageInterval: 30 * time.Second,
	}
	fillRandom(cfg.PublicKey[:])

	var c1, c2 [meshcore.PublicKeySize]byte
	fillRandom(c1[:])
	fillRandom(c2[:])

	cfg.Contacts = []meshcore.Contact{
		{AdvName: "Alice", PublicKey: c1, Type: meshcore.ContactTypeChat, Flags: meshcore.ContactFlagFavourite, OutPathLen: -1},
		{AdvName: "Repeater1", PublicKey: c2, Type: meshcore.ContactTypeRepeater, OutPathLen: -1},
	}
	return cfg
}

func fillRandom(b []byte) {
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
}

// Device is a fake MeshCore device that understands enough of the wire
// protocol (spec.md §3, §4.2-§4.5) to exercise the transport/client
// stack end to end without real hardware.
type Device struct {
	cfg    Config
	stream io.ReadWriter
	codec  *meshcore.Codec
	logger func(format string, args ...interface{})

	mu            sync.Mutex
	started       time.Time
	batteryMv     uint16
	pendingStream []meshcore.Contact
}

// New creates a simulated device that speaks the wire protocol over
// stream, the device-facing end of a transport.Stream pair (e.g. the
// device side of streamio.NewPipePair, or a PTY master opened via
// OpenPTY on platforms that support it).
func New(cfg Config, stream io.ReadWriter) *Device {
	logger := func(string, ...interface{}) {}
	if cfg.Verbose {
		logger = func(format string, args ...interface{}) {
			fmt.Printf("[sim] "+format+"\n", args...)
		}
	}

	return &Device{
		cfg:       cfg,
		stream:    stream,
		codec:     meshcore.NewCodec(),
		logger:    logger,
		started:   time.Now(),
		batteryMv: 4100,
	}
}

// Run drives the device's read loop until ctx is cancelled or the
// stream returns a fatal error. Call it in its own goroutine.
func (d *Device) Run(ctx context.Context) error {
	d.logger("device started, advert_name=%q", d.cfg.AdvertName)

	type readResult struct {
		chunk []byte
		err   error
	}
	results := make(chan readResult, 1)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := d.stream.Read(buf)
			var chunk []byte
			if n > 0 {
				chunk = append([]byte(nil), buf[:n]...)
			}
			results <- readResult{chunk: chunk, err: err}
			if err != nil {
				return
			}
		}
	}()

	if d.cfg.MessageInterval > 0 {
		go d.messageLoop(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-results:
			if len(r.chunk) > 0 {
				for _, f := range d.codec.Push(r.chunk) {
					d.handleFrame(f)
				}
			}
			if r.err != nil {
				if r.err == io.EOF {
					return nil
				}
				return r.err
			}
		}
	}
}

func (d *Device) writeFrame(payload []byte) {
	b := meshcore.Encode(meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: payload})
	if _, err := d.stream.Write(b); err != nil {
		d.logger("write error: %v", err)
	}
}

func (d *Device) writeOk() {
	d.writeFrame([]byte{byte(meshcore.RespCodeOk)})
}

func (d *Device) writeErr(status meshcore.StatusCode) {
	d.writeFrame([]byte{byte(meshcore.RespCodeErr), byte(status)})
}

func (d *Device) writeSentAck(tag uint32, suggestedMs uint32) {
	buf := make([]byte, 10)
	buf[0] = byte(meshcore.RespCodeSent)
	binary.LittleEndian.PutUint32(buf[2:6], tag)
	binary.LittleEndian.PutUint32(buf[6:10], suggestedMs)
	d.writeFrame(buf)
}

func (d *Device) handleFrame(f meshcore.Frame) {
	if len(f.Payload) == 0 {
		return
	}
	cmd := f.Command()
	body := f.Payload[1:]
	d.logger("received command %#x, %d body bytes", byte(cmd), len(body))

	switch cmd {
	case meshcore.CmdAppStart:
		d.writeOk()

	case meshcore.CmdDeviceQuery:
		d.writeFrame(append([]byte{byte(meshcore.RespCodeDeviceInfo)}, meshcore.EncodeDeviceInfo(meshcore.DeviceInfo{
			FirmwareVer:      4,
			MaxContacts:      100,
			MaxGroupChannels: byte(meshcore.MaxChannels),
			PublicKey:        d.cfg.PublicKey,
			DeviceID:         "sim-0001",
			FirmwareBuild:    "sim-build",
			HardwareModel:    "simulator",
			SerialNumber:     "000000",
		})...))

	case meshcore.CmdGetDeviceTime:
		buf := make([]byte, 5)
		buf[0] = byte(meshcore.RespCodeCurrTime)
		binary.LittleEndian.PutUint32(buf[1:5], uint32(time.Now().Unix()))
		d.writeFrame(buf)

	case meshcore.CmdSetDeviceTime:
		d.writeOk()

	case meshcore.CmdGetBattAndStorage:
		d.writeFrame(append([]byte{byte(meshcore.RespCodeBattAndStorage)}, meshcore.EncodeBattAndStorage(meshcore.BattAndStorage{
			BatteryMv: d.batteryMv,
			UsedKb:    1024,
			TotalKb:   8192,
		})...))

	case meshcore.CmdGetStats:
		buf := []byte{byte(meshcore.RespCodeStats), 0}
		buf = append(buf, meshcore.EncodeRadioStats(meshcore.RadioStats{
			NoiseFloor:    -110,
			LastRSSI:      -72,
			LastSNRScaled: 32,
			TxAirSecs:     120,
			RxAirSecs:     900,
		})...)
		d.writeFrame(buf)

	case meshcore.CmdSetRadioParams, meshcore.CmdSetOtherParams, meshcore.CmdSetTxPower:
		d.writeOk()

	case meshcore.CmdSetAdvertName:
		d.mu.Lock()
		d.cfg.AdvertName = string(body)
		d.mu.Unlock()
		d.writeOk()

	case meshcore.CmdGetContacts:
		d.handleGetContacts()

	case meshcore.CmdSyncNextMessage:
		d.handleSyncNext()

	case meshcore.CmdGetContactByKey:
		d.handleGetContactByKey(body)

	case meshcore.CmdAddUpdateContact, meshcore.CmdSetContact:
		d.handleAddUpdateContact(body)

	case meshcore.CmdRemoveContact:
		d.handleRemoveContact(body)

	case meshcore.CmdGetAutoaddConfig:
		d.writeFrame([]byte{byte(meshcore.RespCodeAutoaddConfig), 1})

	case meshcore.CmdSetAutoaddConfig:
		d.writeOk()

	case meshcore.CmdGetChannel:
		d.handleGetChannel(body)

	case meshcore.CmdSetChannel:
		d.handleSetChannel(body)

	case meshcore.CmdSendTxtMsg, meshcore.CmdSendChannelTxtMsg:
		d.writeSentAck(uint32(rand.Intn(1<<31)), 3000)

	case meshcore.CmdSendSelfAdvert:
		d.writeOk()

	case meshcore.CmdGetAdvertPath:
		d.writeFrame(append([]byte{byte(meshcore.RespCodeAdvertPath)}, meshcore.EncodeAdvertPath(meshcore.AdvertPath{
			ReceivedTs: uint32(time.Now().Unix()),
			Path:       []byte{0x01, 0x02},
		})...))

	case meshcore.CmdSendPathDiscoveryReq:
		d.handleTwoPhasePath(meshcore.RespCodePathResponse)

	case meshcore.CmdSendTracePath:
		d.handleTwoPhasePath(meshcore.PushCodeTraceData)

	case meshcore.CmdSendNeighboursReq:
		d.handleNeighboursReq()

	case meshcore.CmdSendStatusReq:
		d.handleStatusReq()

	case meshcore.CmdSendBinaryReq:
		tag := uint32(rand.Intn(1 << 31))
		d.writeSentAck(tag, 2000)
		go func(tag uint32) {
			time.Sleep(50 * time.Millisecond)
			d.writeFrame(meshcore.EncodeBinaryResponse(meshcore.PushCodeBinaryResponse, tag, []byte{0x00}))
		}(tag)

	case meshcore.CmdReboot:
		// No reply: matches spec.md's note that firmware does not
		// reliably reply before resetting.

	case meshcore.CmdResetPath, meshcore.CmdResetAllPaths, meshcore.CmdSetAdvertLatLon,
		meshcore.CmdShareContact, meshcore.CmdSaveIdentity, meshcore.CmdSignData,
		meshcore.CmdSendLogin:
		d.writeOk()

	case meshcore.CmdExportContact:
		d.writeFrame([]byte{byte(meshcore.RespCodeExportContact)})

	case meshcore.CmdImportContact:
		d.writeOk()

	default:
		d.writeErr(meshcore.StatusInvalidCommand)
	}
}

// handleGetContacts answers CMD_GET_CONTACTS with CONTACTS_START, then
// queues the configured contacts to stream back one per
// CMD_SYNC_NEXT_MESSAGE, matching EnumerateContacts' state machine
// (spec.md §4.6).
func (d *Device) handleGetContacts() {
	d.mu.Lock()
	d.pendingStream = append([]meshcore.Contact(nil), d.cfg.Contacts...)
	empty := len(d.pendingStream) == 0
	d.mu.Unlock()

	if empty {
		buf := make([]byte, 5)
		buf[0] = byte(meshcore.RespCodeEndOfContacts)
		binary.LittleEndian.PutUint32(buf[1:5], uint32(time.Now().Unix()))
		d.writeFrame(buf)
		return
	}
	d.writeFrame([]byte{byte(meshcore.RespCodeContactsStart)})
}

// handleSyncNext drains d.pendingStream (queued by CMD_GET_CONTACTS),
// answers END_OF_CONTACTS once that queue empties, and otherwise falls
// back to NO_MORE_MESSAGES, since this simulator does not model an
// offline message queue separately from contact streaming.
func (d *Device) handleSyncNext() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pendingStream) > 0 {
		ct := d.pendingStream[0]
		d.pendingStream = d.pendingStream[1:]
		d.writeFrame(append([]byte{byte(meshcore.RespCodeContact)}, meshcore.EncodeContact(ct)...))
		return
	}
	if d.pendingStream == nil {
		d.writeFrame([]byte{byte(meshcore.RespCodeNoMoreMessages)})
		return
	}
	d.pendingStream = nil

	buf := make([]byte, 5)
	buf[0] = byte(meshcore.RespCodeEndOfContacts)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(time.Now().Unix()))
	d.writeFrame(buf)
}

func (d *Device) handleGetContactByKey(body []byte) {
	if len(body) < meshcore.PublicKeySize {
		d.writeErr(meshcore.StatusInvalidParam)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ct := range d.cfg.Contacts {
		if string(ct.PublicKey[:]) == string(body[:meshcore.PublicKeySize]) {
			d.writeFrame(append([]byte{byte(meshcore.RespCodeContact)}, meshcore.EncodeContact(ct)...))
			return
		}
	}
	d.writeErr(meshcore.StatusNotFound)
}

func (d *Device) handleAddUpdateContact(body []byte) {
	ct, err := meshcore.DecodeContact(body)
	if err != nil {
		d.writeErr(meshcore.StatusInvalidParam)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.cfg.Contacts {
		if existing.PublicKey == ct.PublicKey {
			d.cfg.Contacts[i] = ct
			d.writeOk()
			return
		}
	}
	d.cfg.Contacts = append(d.cfg.Contacts, ct)
	d.writeOk()
}

func (d *Device) handleRemoveContact(body []byte) {
	if len(body) < meshcore.PublicKeySize {
		d.writeErr(meshcore.StatusInvalidParam)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, ct := range d.cfg.Contacts {
		if string(ct.PublicKey[:]) == string(body[:meshcore.PublicKeySize]) {
			d.cfg.Contacts = append(d.cfg.Contacts[:i], d.cfg.Contacts[i+1:]...)
			d.writeOk()
			return
		}
	}
	d.writeErr(meshcore.StatusNotFound)
}

func (d *Device) handleGetChannel(body []byte) {
	if len(body) < 1 {
		d.writeErr(meshcore.StatusInvalidParam)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if body[0] == d.cfg.Channel.Index {
		d.writeFrame(append([]byte{byte(meshcore.RespCodeChannelInfo)}, meshcore.EncodeChannel(d.cfg.Channel)...))
		return
	}
	d.writeErr(meshcore.StatusNotFound)
}

func (d *Device) handleSetChannel(body []byte) {
	ch, err := meshcore.DecodeChannel(body)
	if err != nil {
		d.writeErr(meshcore.StatusInvalidParam)
		return
	}
	d.mu.Lock()
	d.cfg.Channel = ch
	d.mu.Unlock()
	d.writeOk()
}

// handleTwoPhasePath acknowledges a path-discovery or trace-path
// request, then asynchronously delivers a one-hop PathDiscoveryResult
// as the named push code, matching the two-phase pattern in spec.md
// §4.3.
func (d *Device) handleTwoPhasePath(pushCode meshcore.ResponseCode) {
	d.writeSentAck(uint32(rand.Intn(1<<31)), 1500)
	go func() {
		time.Sleep(30 * time.Millisecond)
		result := meshcore.EncodePathDiscoveryResult(meshcore.PathDiscoveryResult{
			InPath:  []byte{0x01},
			OutPath: []byte{0x01},
		})
		d.writeFrame(append([]byte{byte(pushCode)}, result...))
	}()
}

func (d *Device) handleNeighboursReq() {
	tag := uint32(rand.Intn(1 << 31))
	d.writeSentAck(tag, 1500)
	go func(tag uint32) {
		time.Sleep(30 * time.Millisecond)

		buf := make([]byte, 0, 16)
		buf = append(buf, byte(meshcore.PushCodeBinaryResponse), 0)
		var tagBytes [4]byte
		binary.LittleEndian.PutUint32(tagBytes[:], tag)
		buf = append(buf, tagBytes[:]...)

		d.mu.Lock()
		contacts := d.cfg.Contacts
		d.mu.Unlock()

		buf = append(buf, byte(len(contacts)), byte(len(contacts)))
		for _, ct := range contacts {
			buf = append(buf, ct.PublicKey[:6]...)
			var secsAgo [2]byte
			binary.LittleEndian.PutUint16(secsAgo[:], uint16(30+rand.Intn(600)))
			buf = append(buf, secsAgo[:]...)
			buf = append(buf, byte(int8(rand.Intn(40)-20)))
		}
		d.writeFrame(buf)
	}(tag)
}

func (d *Device) handleStatusReq() {
	d.writeSentAck(uint32(rand.Intn(1<<31)), 1500)
	go func() {
		time.Sleep(20 * time.Millisecond)
		d.writeFrame(append([]byte{byte(meshcore.PushCodeStatusResponse)}, meshcore.EncodeStatusInfo(meshcore.StatusInfo{
			BatteryMv:      d.batteryMv,
			UptimeSecs:     uint32(time.Since(d.started).Seconds()),
			CurrTxQueueLen: 0,
			NoiseFloor:     -108,
		})...))
	}()
}

// encodeContactMessage builds a legacy CONTACT_MSG_RECV payload: the
// wire layout DecodeContactMessage expects, minus the leading response
// code (prepended by the caller).
func encodeContactMessage(txtType uint8, senderPrefix [6]byte, content string) []byte {
	buf := make([]byte, 0, 1+1+4+6+len(content))
	buf = append(buf, txtType, 0)
	var ts [4]byte
	binary.LittleEndian.PutUint32(ts[:], uint32(time.Now().Unix()))
	buf = append(buf, ts[:]...)
	buf = append(buf, senderPrefix[:]...)
	buf = append(buf, content...)
	return buf
}

// messageLoop periodically pushes an unsolicited contact message, as if
// a remote node on the mesh were texting in.
func (d *Device) messageLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.MessageInterval)
	defer ticker.Stop()

	samples := []string{
		"hello from the simulated mesh",
		"signal check",
		"testing 1 2 3",
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			contacts := d.cfg.Contacts
			d.mu.Unlock()
			if len(contacts) == 0 {
				continue
			}
			from := contacts[rand.Intn(len(contacts))]
			var prefix [6]byte
			copy(prefix[:], from.PublicKey[:6])
			msg := samples[rand.Intn(len(samples))]

			d.logger("pushing message from %s: %s", from.AdvName, msg)
			d.writeFrame(append([]byte{byte(meshcore.RespCodeContactMsgRecv)}, encodeContactMessage(0, prefix, msg)...))
		}
	}
}
