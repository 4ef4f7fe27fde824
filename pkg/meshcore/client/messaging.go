package client

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// SentAck is the immediate RESP_CODE_SENT acknowledgement a send
// command gets back: a routing tag and, for long-latency operations
// only, a suggested second-phase timeout (spec.md §4.3).
type SentAck struct {
	Tag                 uint32
	SuggestedTimeoutMs   uint32
	HasSuggestedTimeout  bool
}

func decodeSentAck(payload []byte) SentAck {
	var ack SentAck
	if len(payload) >= 6 {
		ack.Tag = binary.LittleEndian.Uint32(payload[2:6])
	}
	if ms, ok := meshcore.SuggestedTimeout(payload); ok {
		ack.SuggestedTimeoutMs = ms
		ack.HasSuggestedTimeout = true
	}
	return ack
}

// SendToContact validates and issues CMD_SEND_TXT_MSG to a contact
// identified by its 6-byte public-key prefix.
func (c *Client) SendToContact(ctx context.Context, recipientPrefix [6]byte, txtType uint8, content string) (SentAck, error) {
	if len(content) == 0 {
		return SentAck{}, &meshcore.InvalidArgument{Name: "content", Reason: "must not be empty"}
	}

	body := meshcore.EncodeSendTextMsg(txtType, recipientPrefix, content)
	f, err := c.sendCommand(ctx, meshcore.CmdSendTxtMsg, body)
	if err != nil {
		return SentAck{}, err
	}
	if f.Code() == meshcore.RespCodeErr {
		return SentAck{}, checkErr(meshcore.CmdSendTxtMsg, body, f)
	}
	if f.Code() != meshcore.RespCodeSent {
		return SentAck{}, unexpectedCode(meshcore.CmdSendTxtMsg, f)
	}
	return decodeSentAck(f.Payload), nil
}

// SendToChannel validates and issues CMD_SEND_CHANNEL_TXT_MSG.
func (c *Client) SendToChannel(ctx context.Context, channelIdx uint8, txtType uint8, content string) (SentAck, error) {
	if len(content) == 0 {
		return SentAck{}, &meshcore.InvalidArgument{Name: "content", Reason: "must not be empty"}
	}

	body := meshcore.EncodeSendChannelTextMsg(txtType, channelIdx, content)
	f, err := c.sendCommand(ctx, meshcore.CmdSendChannelTxtMsg, body)
	if err != nil {
		return SentAck{}, err
	}
	if f.Code() == meshcore.RespCodeErr {
		return SentAck{}, checkErr(meshcore.CmdSendChannelTxtMsg, body, f)
	}
	if f.Code() != meshcore.RespCodeSent {
		return SentAck{}, unexpectedCode(meshcore.CmdSendChannelTxtMsg, f)
	}
	return decodeSentAck(f.Payload), nil
}

// remoteCLITxtType is the txt_type value that marks a text message as a
// remote CLI command rather than user-facing chat content (spec.md
// §4.4).
const remoteCLITxtType = 0x01

// SendRemoteCommand issues a remote CLI command via CMD_SEND_TXT_MSG
// with txt_type=0x01, then waits for the command's reply as a second
// phase: a CONTACT_MSG_RECV(_V3) push from the same contact carries the
// command's text output.
func (c *Client) SendRemoteCommand(ctx context.Context, recipientPrefix [6]byte, command string) (string, error) {
	ack, err := c.SendToContact(ctx, recipientPrefix, remoteCLITxtType, command)
	if err != nil {
		return "", err
	}

	waitCtx := ctx
	if ack.HasSuggestedTimeout {
		var cancel context.CancelFunc
		d := time.Duration(float64(ack.SuggestedTimeoutMs)*pathDiscoveryTimeoutMultiplier) * time.Millisecond
		waitCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	reply, err := c.t.AwaitPush(waitCtx, func(f meshcore.Frame) bool {
		switch f.Code() {
		case meshcore.RespCodeContactMsgRecv:
			m, ok := meshcore.DecodeContactMessage(f.Payload[1:])
			return ok && m.SenderPrefix == recipientPrefix
		case meshcore.RespCodeContactMsgRecvV3:
			m, ok := meshcore.DecodeContactMessageV3(f.Payload[1:])
			return ok && m.SenderPrefix == recipientPrefix
		default:
			return false
		}
	})
	if err != nil {
		return "", err
	}

	if reply.Code() == meshcore.RespCodeContactMsgRecvV3 {
		m, ok := meshcore.DecodeContactMessageV3(reply.Payload[1:])
		if !ok {
			return "", &meshcore.CodecError{RecordType: "ContactMessage", Length: len(reply.Payload), Reason: "short record"}
		}
		return m.Content, nil
	}
	m, ok := meshcore.DecodeContactMessage(reply.Payload[1:])
	if !ok {
		return "", &meshcore.CodecError{RecordType: "ContactMessage", Length: len(reply.Payload), Reason: "short record"}
	}
	return m.Content, nil
}

// InboxMessage is one message drained by SyncOfflineQueue: exactly one
// of Contact or Channel is non-nil.
type InboxMessage struct {
	Contact *meshcore.ContactMessage
	Channel *meshcore.ChannelMessage
}

// SyncOfflineQueue long-polls CMD_SYNC_NEXT_MESSAGE until
// RESP_CODE_NO_MORE_MESSAGES, decoding each queued message and handing
// it to onMessage in arrival order. Frames unrelated to message
// delivery are handed back to event subscribers via Transport.Republish
// rather than silently discarded (the same policy as contact
// enumeration, spec.md §4.6).
func (c *Client) SyncOfflineQueue(ctx context.Context, onMessage func(InboxMessage)) error {
	for {
		f, err := c.sendCommand(ctx, meshcore.CmdSyncNextMessage, nil)
		if err != nil {
			return err
		}

		switch f.Code() {
		case meshcore.RespCodeNoMoreMessages:
			return nil
		case meshcore.RespCodeContactMsgRecv:
			m, ok := meshcore.DecodeContactMessage(f.Payload[1:])
			if !ok {
				return &meshcore.CodecError{RecordType: "ContactMessage", Length: len(f.Payload), Reason: "short record"}
			}
			onMessage(InboxMessage{Contact: &m})
		case meshcore.RespCodeContactMsgRecvV3:
			m, ok := meshcore.DecodeContactMessageV3(f.Payload[1:])
			if !ok {
				return &meshcore.CodecError{RecordType: "ContactMessage", Length: len(f.Payload), Reason: "short record"}
			}
			onMessage(InboxMessage{Contact: &m})
		case meshcore.RespCodeChannelMsgRecv:
			m, ok := meshcore.DecodeChannelMessage(f.Payload[1:])
			if !ok {
				return &meshcore.CodecError{RecordType: "ChannelMessage", Length: len(f.Payload), Reason: "short record"}
			}
			onMessage(InboxMessage{Channel: &m})
		case meshcore.RespCodeChannelMsgRecvV3:
			m, ok := meshcore.DecodeChannelMessageV3(f.Payload[1:])
			if !ok {
				return &meshcore.CodecError{RecordType: "ChannelMessage", Length: len(f.Payload), Reason: "short record"}
			}
			onMessage(InboxMessage{Channel: &m})
		case meshcore.RespCodeErr:
			return checkErr(meshcore.CmdSyncNextMessage, nil, f)
		default:
			c.t.Republish(f)
		}
	}
}
