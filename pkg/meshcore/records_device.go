package meshcore

import "encoding/binary"

// DeviceInfo is the decoded RESP_CODE_DEVICE_INFO payload. The layout
// beyond firmware_version/max_contacts/max_group_channels/public_key is
// an Open Question in spec.md §9; this is the re-derived layout
// documented in SPEC_FULL.md §3.x and DESIGN.md.
type DeviceInfo struct {
	FirmwareVer      uint8
	MaxContacts      uint8
	MaxGroupChannels uint8
	PublicKey        [PublicKeySize]byte
	DeviceID         string
	FirmwareBuild    string
	HardwareModel    string
	SerialNumber     string
}

// DecodeDeviceInfo parses a DeviceInfo payload (minus the leading
// response-code byte, which the caller strips). It tolerates a payload
// that runs out partway through the trailing string fields: remaining
// fields are left zero-valued rather than raising an error, matching
// the "tolerate payload-length variation" rule used throughout §4.5.
func DecodeDeviceInfo(payload []byte) (DeviceInfo, error) {
	var d DeviceInfo
	if len(payload) < 3+PublicKeySize {
		return d, &CodecError{RecordType: "DeviceInfo", Length: len(payload), Reason: "missing fixed header"}
	}

	d.FirmwareVer = payload[0]
	d.MaxContacts = payload[1]
	d.MaxGroupChannels = payload[2]
	pos := 3
	copy(d.PublicKey[:], payload[pos:pos+PublicKeySize])
	pos += PublicKeySize

	var ok bool
	d.DeviceID, pos, ok = readLenPrefixedString(payload, pos)
	if !ok {
		return d, nil
	}
	d.FirmwareBuild, pos, ok = readLenPrefixedString(payload, pos)
	if !ok {
		return d, nil
	}
	d.HardwareModel, pos, ok = readLenPrefixedString(payload, pos)
	if !ok {
		return d, nil
	}
	d.SerialNumber, _, _ = readLenPrefixedString(payload, pos)
	return d, nil
}

// EncodeDeviceInfo serialises a DeviceInfo (used by tests and the
// simulated device).
func EncodeDeviceInfo(d DeviceInfo) []byte {
	buf := make([]byte, 0, 3+PublicKeySize+64)
	buf = append(buf, d.FirmwareVer, d.MaxContacts, d.MaxGroupChannels)
	buf = append(buf, d.PublicKey[:]...)
	buf = appendLenPrefixedString(buf, d.DeviceID)
	buf = appendLenPrefixedString(buf, d.FirmwareBuild)
	buf = appendLenPrefixedString(buf, d.HardwareModel)
	buf = appendLenPrefixedString(buf, d.SerialNumber)
	return buf
}

func readLenPrefixedString(data []byte, pos int) (string, int, bool) {
	if pos >= len(data) {
		return "", pos, false
	}
	n := int(data[pos])
	pos++
	if pos+n > len(data) {
		return "", pos, false
	}
	return string(data[pos : pos+n]), pos + n, true
}

func appendLenPrefixedString(buf []byte, s string) []byte {
	if len(s) > 255 {
		s = s[:255]
	}
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

// RadioParams mirrors the on-wire radio parameter record (spec.md §3.3).
type RadioParams struct {
	FreqKhz uint32
	BwKhz   uint32
	SF      uint8
	CR      uint8
}

// EncodeRadioParams serialises RadioParams to its 10-byte wire form.
func EncodeRadioParams(p RadioParams) []byte {
	buf := make([]byte, 10)
	binary.LittleEndian.PutUint32(buf[0:4], p.FreqKhz)
	binary.LittleEndian.PutUint32(buf[4:8], p.BwKhz)
	buf[8] = p.SF
	buf[9] = p.CR
	return buf
}

// DecodeRadioParams parses RadioParams from its 10-byte wire form.
func DecodeRadioParams(data []byte) (RadioParams, error) {
	if len(data) < 10 {
		return RadioParams{}, &CodecError{RecordType: "RadioParams", Length: len(data), Reason: "short record"}
	}
	return RadioParams{
		FreqKhz: binary.LittleEndian.Uint32(data[0:4]),
		BwKhz:   binary.LittleEndian.Uint32(data[4:8]),
		SF:      data[8],
		CR:      data[9],
	}, nil
}

// RadioStats mirrors the on-wire radio stats record (14 bytes total,
// spec.md §3.3, including the leading resp_code and stats_type bytes
// which callers strip before calling DecodeRadioStats).
type RadioStats struct {
	NoiseFloor    int16 // dBm
	LastRSSI      int8
	LastSNRScaled int8 // actual SNR = value / 4
	TxAirSecs     uint32
	RxAirSecs     uint32
}

// LastSNR returns the last SNR in dB.
func (s RadioStats) LastSNR() float32 { return float32(s.LastSNRScaled) / 4.0 }

// RadioStatsBodySize is the size of the stats body after the 2-byte
// resp_code + stats_type header (14 total - 2 = 12).
const RadioStatsBodySize = 12

// DecodeRadioStats parses the 12-byte stats body (resp_code and
// stats_type already stripped by the caller).
func DecodeRadioStats(data []byte) (RadioStats, error) {
	if len(data) < RadioStatsBodySize {
		return RadioStats{}, &CodecError{RecordType: "RadioStats", Length: len(data), Reason: "short record"}
	}
	return RadioStats{
		NoiseFloor:    int16(binary.LittleEndian.Uint16(data[0:2])),
		LastRSSI:      int8(data[2]),
		LastSNRScaled: int8(data[3]),
		TxAirSecs:     binary.LittleEndian.Uint32(data[4:8]),
		RxAirSecs:     binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// EncodeRadioStats serialises the 12-byte stats body.
func EncodeRadioStats(s RadioStats) []byte {
	buf := make([]byte, RadioStatsBodySize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(s.NoiseFloor))
	buf[2] = byte(s.LastRSSI)
	buf[3] = byte(s.LastSNRScaled)
	binary.LittleEndian.PutUint32(buf[4:8], s.TxAirSecs)
	binary.LittleEndian.PutUint32(buf[8:12], s.RxAirSecs)
	return buf
}

// BattAndStorage mirrors the on-wire battery & storage record.
type BattAndStorage struct {
	BatteryMv uint16
	UsedKb    uint32
	TotalKb   uint32
}

// EncodeBattAndStorage serialises a BattAndStorage record.
func EncodeBattAndStorage(b BattAndStorage) []byte {
	buf := make([]byte, 10)
	binary.LittleEndian.PutUint16(buf[0:2], b.BatteryMv)
	binary.LittleEndian.PutUint32(buf[2:6], b.UsedKb)
	binary.LittleEndian.PutUint32(buf[6:10], b.TotalKb)
	return buf
}

// DecodeBattAndStorage parses a BattAndStorage record.
func DecodeBattAndStorage(data []byte) (BattAndStorage, error) {
	if len(data) < 10 {
		return BattAndStorage{}, &CodecError{RecordType: "BattAndStorage", Length: len(data), Reason: "short record"}
	}
	return BattAndStorage{
		BatteryMv: binary.LittleEndian.Uint16(data[0:2]),
		UsedKb:    binary.LittleEndian.Uint32(data[2:6]),
		TotalKb:   binary.LittleEndian.Uint32(data[6:10]),
	}, nil
}
