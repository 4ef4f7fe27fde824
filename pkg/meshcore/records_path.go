package meshcore

import "encoding/binary"

// AdvertPath is the decoded RESP_CODE_ADVERT_PATH payload (minus the
// leading response-code byte).
type AdvertPath struct {
	ReceivedTs uint32
	Path       []byte // one hop identifier per byte
}

// DecodeAdvertPath parses an AdvertPath payload.
func DecodeAdvertPath(data []byte) (AdvertPath, error) {
	if len(data) < 4 {
		return AdvertPath{}, &CodecError{RecordType: "AdvertPath", Length: len(data), Reason: "missing timestamp"}
	}
	return AdvertPath{
		ReceivedTs: binary.LittleEndian.Uint32(data[0:4]),
		Path:       append([]byte(nil), data[4:]...),
	}, nil
}

// EncodeAdvertPath serialises an AdvertPath payload.
func EncodeAdvertPath(a AdvertPath) []byte {
	buf := make([]byte, 4+len(a.Path))
	binary.LittleEndian.PutUint32(buf[0:4], a.ReceivedTs)
	copy(buf[4:], a.Path)
	return buf
}

// PathDiscoveryResult is the decoded result of a two-phase path
// discovery or trace-path operation: each hop is one opaque byte (SNR
// annotations, if any, stay inside the byte per spec.md §4.5).
type PathDiscoveryResult struct {
	InPath  []byte
	OutPath []byte
}

// DecodePathDiscoveryResult parses a length-prefixed in_path/out_path
// pair. Empty paths mean a direct (zero-hop) route.
func DecodePathDiscoveryResult(data []byte) (PathDiscoveryResult, error) {
	if len(data) < 1 {
		return PathDiscoveryResult{}, &CodecError{RecordType: "PathDiscoveryResult", Length: len(data), Reason: "missing in_path length"}
	}
	inLen := int(data[0])
	pos := 1
	if len(data) < pos+inLen+1 {
		return PathDiscoveryResult{}, &CodecError{RecordType: "PathDiscoveryResult", Length: len(data), Reason: "truncated in_path"}
	}
	inPath := append([]byte(nil), data[pos:pos+inLen]...)
	pos += inLen

	outLen := int(data[pos])
	pos++
	if len(data) < pos+outLen {
		return PathDiscoveryResult{}, &CodecError{RecordType: "PathDiscoveryResult", Length: len(data), Reason: "truncated out_path"}
	}
	outPath := append([]byte(nil), data[pos:pos+outLen]...)

	return PathDiscoveryResult{InPath: inPath, OutPath: outPath}, nil
}

// EncodePathDiscoveryResult serialises a PathDiscoveryResult.
func EncodePathDiscoveryResult(r PathDiscoveryResult) []byte {
	buf := make([]byte, 0, 2+len(r.InPath)+len(r.OutPath))
	buf = append(buf, byte(len(r.InPath)))
	buf = append(buf, r.InPath...)
	buf = append(buf, byte(len(r.OutPath)))
	buf = append(buf, r.OutPath...)
	return buf
}

// Neighbour is one entry of a NeighbourList.
type Neighbour struct {
	PubkeyPrefix []byte // configurable length, per spec.md §3.3
	SecsAgo      uint16
	SNRScaled    int8
}

// SNR returns the neighbour's SNR in dB.
func (n Neighbour) SNR() float32 { return float32(n.SNRScaled) / 4.0 }

// NeighbourList is the decoded neighbour-request push response.
type NeighbourList struct {
	Tag         uint32
	Neighbours  []Neighbour
}

// neighbourPrefixLen is the configurable prefix length used for
// neighbour pubkey entries; MeshCore firmware uses 6 bytes, matching
// the contact pubkey prefix used elsewhere on the wire.
const neighbourPrefixLen = 6

// DecodeNeighbourList parses the 6-byte header (resp_code, reserved,
// tag) plus results_count/neighbours_count plus results_count entries.
// The caller passes the full payload including the leading resp_code
// byte, matching spec.md §3.3's "after a 6-byte header" phrasing.
func DecodeNeighbourList(payload []byte) (NeighbourList, error) {
	const headerLen = 6
	if len(payload) < headerLen+2 {
		return NeighbourList{}, &CodecError{RecordType: "NeighbourList", Length: len(payload), Reason: "missing header"}
	}
	tag := binary.LittleEndian.Uint32(payload[2:6])
	resultsCount := int(payload[6])
	pos := headerLen + 2

	entrySize := neighbourPrefixLen + 2 + 1
	result := NeighbourList{Tag: tag}
	for i := 0; i < resultsCount; i++ {
		if len(payload) < pos+entrySize {
			return NeighbourList{}, &CodecError{RecordType: "NeighbourList", Length: len(payload), Reason: "truncated entry"}
		}
		var n Neighbour
		n.PubkeyPrefix = append([]byte(nil), payload[pos:pos+neighbourPrefixLen]...)
		pos += neighbourPrefixLen
		n.SecsAgo = binary.LittleEndian.Uint16(payload[pos : pos+2])
		pos += 2
		n.SNRScaled = int8(payload[pos])
		pos++
		result.Neighbours = append(result.Neighbours, n)
	}
	return result, nil
}

// SendTracePathParams is the request payload for CMD_SEND_TRACE_PATH.
type SendTracePathParams struct {
	Tag      uint32
	AuthCode uint32
	Flags    uint8
	Path     []byte
}

// EncodeSendTracePathParams serialises a SendTracePathParams request.
func EncodeSendTracePathParams(p SendTracePathParams) []byte {
	buf := make([]byte, 0, 9+len(p.Path))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], p.Tag)
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], p.AuthCode)
	buf = append(buf, tmp[:]...)
	buf = append(buf, p.Flags)
	buf = append(buf, p.Path...)
	return buf
}

// StatusInfo is the decoded PUSH_CODE_STATUS_RESPONSE payload. Firmware
// reports a compact health snapshot; fields beyond battery/uptime are
// intentionally limited to what every revision reliably exposes.
type StatusInfo struct {
	BatteryMv     uint16
	UptimeSecs    uint32
	CurrTxQueueLen uint8
	NoiseFloor    int16
}

// DecodeStatusInfo parses a StatusInfo payload (resp_code already
// stripped by the caller).
func DecodeStatusInfo(data []byte) (StatusInfo, error) {
	if len(data) < 9 {
		return StatusInfo{}, &CodecError{RecordType: "StatusInfo", Length: len(data), Reason: "short record"}
	}
	return StatusInfo{
		BatteryMv:      binary.LittleEndian.Uint16(data[0:2]),
		UptimeSecs:     binary.LittleEndian.Uint32(data[2:6]),
		CurrTxQueueLen: data[6],
		NoiseFloor:     int16(binary.LittleEndian.Uint16(data[7:9])),
	}, nil
}

// EncodeStatusInfo serialises a StatusInfo payload.
func EncodeStatusInfo(s StatusInfo) []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint16(buf[0:2], s.BatteryMv)
	binary.LittleEndian.PutUint32(buf[2:6], s.UptimeSecs)
	buf[6] = s.CurrTxQueueLen
	binary.LittleEndian.PutUint16(buf[7:9], uint16(s.NoiseFloor))
	return buf
}

// Advertisement is the decoded self-advertisement payload broadcast by
// CMD_SEND_SELF_ADVERT (and observed from other nodes via push events).
type Advertisement struct {
	PublicKey [PublicKeySize]byte
	Timestamp uint32
	Flags     uint8
	Name      string
	LatitudeI int32
	LongitudeI int32
}

// EncodeAdvertisement serialises an Advertisement record.
func EncodeAdvertisement(a Advertisement) []byte {
	buf := make([]byte, 0, PublicKeySize+4+1+4+4+1+len(a.Name))
	buf = append(buf, a.PublicKey[:]...)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], a.Timestamp)
	buf = append(buf, tmp[:]...)
	buf = append(buf, a.Flags)
	binary.LittleEndian.PutUint32(tmp[:], uint32(a.LatitudeI))
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], uint32(a.LongitudeI))
	buf = append(buf, tmp[:]...)
	buf = appendLenPrefixedString(buf, a.Name)
	return buf
}

// DecodeAdvertisement parses an Advertisement record.
func DecodeAdvertisement(data []byte) (Advertisement, error) {
	const fixedLen = PublicKeySize + 4 + 1 + 4 + 4
	if len(data) < fixedLen+1 {
		return Advertisement{}, &CodecError{RecordType: "Advertisement", Length: len(data), Reason: "short record"}
	}
	var a Advertisement
	copy(a.PublicKey[:], data[0:PublicKeySize])
	pos := PublicKeySize
	a.Timestamp = binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4
	a.Flags = data[pos]
	pos++
	a.LatitudeI = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	a.LongitudeI = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	a.Name, _, _ = readLenPrefixedString(data, pos)
	return a, nil
}
