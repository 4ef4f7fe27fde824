package meshcore

import "encoding/binary"

const pubkeyPrefixLen = 6

// ContactMessage is a decoded CONTACT_MSG_RECV / CONTACT_MSG_RECV_V3
// payload (spec.md §3.3, §4.5).
type ContactMessage struct {
	TxtType      uint8
	Attempt      uint8
	Timestamp    uint32
	SenderPrefix [pubkeyPrefixLen]byte
	MsgID        uint32 // V3 only; zero on legacy frames
	IsV3         bool
	Content      string
}

// DecodeContactMessage decodes a legacy (V1/V2) contact message payload.
// The response code itself (RESP_CODE_CONTACT_MSG_RECV vs
// RESP_CODE_CONTACT_MSG_RECV_V3) selects which decoder the caller
// should use; this function and DecodeContactMessageV3 tolerate
// payload-length variation across firmware by returning false rather
// than panicking (spec.md §4.5).
func DecodeContactMessage(payload []byte) (ContactMessage, bool) {
	const headerLen = 1 + 1 + 4 + pubkeyPrefixLen
	if len(payload) < headerLen {
		return ContactMessage{}, false
	}
	var m ContactMessage
	m.TxtType = payload[0]
	m.Attempt = payload[1]
	m.Timestamp = binary.LittleEndian.Uint32(payload[2:6])
	copy(m.SenderPrefix[:], payload[6:6+pubkeyPrefixLen])
	m.Content = string(payload[headerLen:])
	return m, true
}

// DecodeContactMessageV3 decodes a CONTACT_MSG_RECV_V3 payload, which
// adds a 4-byte message ID ahead of the content.
func DecodeContactMessageV3(payload []byte) (ContactMessage, bool) {
	const headerLen = 1 + 1 + 4 + pubkeyPrefixLen + 4
	if len(payload) < headerLen {
		return ContactMessage{}, false
	}
	var m ContactMessage
	m.TxtType = payload[0]
	m.Attempt = payload[1]
	m.Timestamp = binary.LittleEndian.Uint32(payload[2:6])
	copy(m.SenderPrefix[:], payload[6:6+pubkeyPrefixLen])
	m.MsgID = binary.LittleEndian.Uint32(payload[6+pubkeyPrefixLen : headerLen])
	m.IsV3 = true
	m.Content = string(payload[headerLen:])
	return m, true
}

// ChannelMessage is a decoded CHANNEL_MSG_RECV / CHANNEL_MSG_RECV_V3
// payload.
type ChannelMessage struct {
	TxtType    uint8
	ChannelIdx uint8
	Timestamp  uint32
	MsgID      uint32
	IsV3       bool
	Content    string
}

// DecodeChannelMessage decodes a legacy channel message payload: a
// trailing NUL terminates content rather than the content running to
// end-of-payload (spec.md §3.3).
func DecodeChannelMessage(payload []byte) (ChannelMessage, bool) {
	const headerLen = 1 + 1 + 4
	if len(payload) < headerLen {
		return ChannelMessage{}, false
	}
	var m ChannelMessage
	m.TxtType = payload[0]
	m.ChannelIdx = payload[1]
	m.Timestamp = binary.LittleEndian.Uint32(payload[2:6])

	content := payload[headerLen:]
	if n := len(content); n > 0 && content[n-1] == 0x00 {
		content = content[:n-1]
	}
	m.Content = string(content)
	return m, true
}

// DecodeChannelMessageV3 decodes a CHANNEL_MSG_RECV_V3 payload.
func DecodeChannelMessageV3(payload []byte) (ChannelMessage, bool) {
	const headerLen = 1 + 1 + 4 + 4
	if len(payload) < headerLen {
		return ChannelMessage{}, false
	}
	var m ChannelMessage
	m.TxtType = payload[0]
	m.ChannelIdx = payload[1]
	m.Timestamp = binary.LittleEndian.Uint32(payload[2:6])
	m.MsgID = binary.LittleEndian.Uint32(payload[6:10])
	m.IsV3 = true

	content := payload[headerLen:]
	if n := len(content); n > 0 && content[n-1] == 0x00 {
		content = content[:n-1]
	}
	m.Content = string(content)
	return m, true
}

// EncodeSendTextMsg builds the request payload for CMD_SEND_TXT_MSG:
// txt_type, a 6-byte recipient public-key prefix, then UTF-8 content.
func EncodeSendTextMsg(txtType uint8, recipientPrefix [pubkeyPrefixLen]byte, content string) []byte {
	buf := make([]byte, 0, 1+pubkeyPrefixLen+len(content))
	buf = append(buf, txtType)
	buf = append(buf, recipientPrefix[:]...)
	buf = append(buf, content...)
	return buf
}

// EncodeSendChannelTextMsg builds the request payload for
// CMD_SEND_CHANNEL_TXT_MSG: txt_type, channel index, UTF-8 content.
func EncodeSendChannelTextMsg(txtType uint8, channelIdx uint8, content string) []byte {
	buf := make([]byte, 0, 2+len(content))
	buf = append(buf, txtType, channelIdx)
	buf = append(buf, content...)
	return buf
}
