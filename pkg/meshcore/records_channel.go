package meshcore

const (
	channelNameFieldLen = 32
	channelSecretLen    = 16
	// ChannelRecordSize is the total wire size of a Channel record:
	// 1 (index) + 32 (name) + 16 (secret) = 49 bytes (spec.md §3.3).
	ChannelRecordSize = 1 + channelNameFieldLen + channelSecretLen
)

// Channel mirrors the on-wire channel record.
type Channel struct {
	Index  uint8
	Name   string
	Secret [channelSecretLen]byte
}

// Encrypted reports whether the channel's secret is non-zero.
func (c Channel) Encrypted() bool {
	for _, b := range c.Secret {
		if b != 0 {
			return true
		}
	}
	return false
}

// EncodeChannel serialises a Channel to its fixed 49-byte wire form.
// Name is right-padded with NUL to 32 bytes; names longer than 31 bytes
// are truncated to leave room for the terminator.
func EncodeChannel(c Channel) []byte {
	buf := make([]byte, ChannelRecordSize)
	buf[0] = c.Index

	name := c.Name
	if len(name) > channelNameFieldLen-1 {
		name = name[:channelNameFieldLen-1]
	}
	copy(buf[1:1+channelNameFieldLen], name)

	copy(buf[1+channelNameFieldLen:], c.Secret[:])
	return buf
}

// DecodeChannel parses a Channel from its fixed 49-byte wire form.
func DecodeChannel(data []byte) (Channel, error) {
	if len(data) < ChannelRecordSize {
		return Channel{}, &CodecError{RecordType: "Channel", Length: len(data), Reason: "short record"}
	}

	var c Channel
	c.Index = data[0]

	nameBytes := data[1 : 1+channelNameFieldLen]
	end := channelNameFieldLen
	for i, b := range nameBytes {
		if b == 0 {
			end = i
			break
		}
	}
	c.Name = string(nameBytes[:end])

	copy(c.Secret[:], data[1+channelNameFieldLen:ChannelRecordSize])
	return c, nil
}

// PublicChannelDefault is synthesised by the command surface when
// enumeration yields no channel at index 0 (spec.md §4.4 exception (a)).
func PublicChannelDefault() Channel {
	c := Channel{Index: 0, Name: "All"}
	// secret left all-zero: unencrypted default channel.
	return c
}
