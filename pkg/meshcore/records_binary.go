package meshcore

import "encoding/binary"

// BinaryResponseHeaderSize is the size of the PUSH_CODE_BINARY_RESPONSE
// header: code(1) + reserved(1) + tag(uint32 LE) = 6 bytes (spec.md
// §4.5). The correlator does not read Tag; client.RequestNeighbours
// matches it against the tag of its RESP_CODE_SENT ack (see DESIGN.md,
// resolving the Open Question in spec.md §9 about tag matching for
// binary-request paths).
const BinaryResponseHeaderSize = 6

// BinaryResponse is a PUSH_CODE_BINARY_RESPONSE frame with its header
// parsed out; Payload is everything after the 6-byte header, ready for
// dispatch to the typed decoder selected by the correlating request.
type BinaryResponse struct {
	Tag     uint32
	Payload []byte
}

// DecodeBinaryResponse parses the 6-byte binary-response header. data
// must include the leading response-code byte.
func DecodeBinaryResponse(data []byte) (BinaryResponse, error) {
	if len(data) < BinaryResponseHeaderSize {
		return BinaryResponse{}, &CodecError{RecordType: "BinaryResponse", Length: len(data), Reason: "short header"}
	}
	return BinaryResponse{
		Tag:     binary.LittleEndian.Uint32(data[2:6]),
		Payload: append([]byte(nil), data[BinaryResponseHeaderSize:]...),
	}, nil
}

// EncodeBinaryResponse serialises a BinaryResponse header + payload,
// with code written as the first byte.
func EncodeBinaryResponse(code ResponseCode, tag uint32, payload []byte) []byte {
	buf := make([]byte, BinaryResponseHeaderSize+len(payload))
	buf[0] = byte(code)
	buf[1] = 0
	binary.LittleEndian.PutUint32(buf[2:6], tag)
	copy(buf[BinaryResponseHeaderSize:], payload)
	return buf
}

// SuggestedTimeout parses the suggested-timeout field carried by a
// RESP_CODE_SENT ack at payload bytes 6..=9 (uint32 LE milliseconds),
// per spec.md §4.3. data must include the leading response-code byte.
func SuggestedTimeout(data []byte) (ms uint32, ok bool) {
	if len(data) < 10 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[6:10]), true
}
