package meshcore

import "encoding/binary"

// Contact mirrors the on-wire contact record (spec.md §3.3).
type Contact struct {
	AdvName     string
	PublicKey   [PublicKeySize]byte
	Type        uint8
	Flags       uint8
	LatitudeI   int32 // fixed-point, 1e-6 degrees; see SPEC_FULL.md §9
	LongitudeI  int32
	LastAdvert  uint32
	LastMod     uint32
	OutPathLen  int8 // -1 = unknown, else hop count
	OutPath     []byte
}

// Latitude returns the contact's latitude in degrees.
func (c Contact) Latitude() float64 { return float64(c.LatitudeI) * 1e-6 }

// Longitude returns the contact's longitude in degrees.
func (c Contact) Longitude() float64 { return float64(c.LongitudeI) * 1e-6 }

// Favourite reports the Favourite flag bit.
func (c Contact) Favourite() bool { return c.Flags&ContactFlagFavourite != 0 }

const contactNameMaxLen = 31

// EncodeContact serialises a Contact to its wire representation. The
// name is length-prefixed (one byte) followed by its UTF-8 bytes,
// matching firmware that does not NUL-pad contact names (spec.md §3.3
// notes the encoding is "per firmware").
func EncodeContact(c Contact) []byte {
	name := c.AdvName
	if len(name) > contactNameMaxLen {
		name = name[:contactNameMaxLen]
	}

	buf := make([]byte, 0, 1+len(name)+PublicKeySize+1+1+4+4+4+4+1+len(c.OutPath))
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = append(buf, c.PublicKey[:]...)
	buf = append(buf, c.Type, c.Flags)

	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(c.LatitudeI))
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], uint32(c.LongitudeI))
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], c.LastAdvert)
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], c.LastMod)
	buf = append(buf, tmp[:]...)

	buf = append(buf, byte(c.OutPathLen))
	if c.OutPathLen > 0 {
		buf = append(buf, c.OutPath[:c.OutPathLen]...)
	}
	return buf
}

// DecodeContact parses a Contact from its wire representation.
func DecodeContact(data []byte) (Contact, error) {
	if len(data) < 1 {
		return Contact{}, &CodecError{RecordType: "Contact", Length: len(data), Reason: "empty payload"}
	}
	nameLen := int(data[0])
	pos := 1
	if len(data) < pos+nameLen {
		return Contact{}, &CodecError{RecordType: "Contact", Length: len(data), Reason: "truncated name"}
	}
	name := string(data[pos : pos+nameLen])
	pos += nameLen

	if len(data) < pos+PublicKeySize+2+16 {
		return Contact{}, &CodecError{RecordType: "Contact", Length: len(data), Reason: "truncated fixed fields"}
	}

	var c Contact
	c.AdvName = name
	copy(c.PublicKey[:], data[pos:pos+PublicKeySize])
	pos += PublicKeySize

	c.Type = data[pos]
	c.Flags = data[pos+1]
	pos += 2

	c.LatitudeI = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	c.LongitudeI = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	c.LastAdvert = binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4
	c.LastMod = binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4

	if len(data) < pos+1 {
		return Contact{}, &CodecError{RecordType: "Contact", Length: len(data), Reason: "missing out_path_len"}
	}
	c.OutPathLen = int8(data[pos])
	pos++

	if c.OutPathLen > 0 {
		n := int(c.OutPathLen)
		if len(data) < pos+n {
			return Contact{}, &CodecError{RecordType: "Contact", Length: len(data), Reason: "truncated out_path"}
		}
		c.OutPath = append([]byte(nil), data[pos:pos+n]...)
		pos += n
	}

	return c, nil
}
