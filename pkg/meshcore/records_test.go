package meshcore

import (
	"crypto/sha256"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContactRoundTrip(t *testing.T) {
	c := Contact{
		AdvName:    "base-station",
		Type:       ContactTypeRepeater,
		Flags:      ContactFlagFavourite | ContactFlagTelemetryBase,
		LatitudeI:  37774900,
		LongitudeI: -122419400,
		LastAdvert: 1704067200,
		LastMod:    1704067300,
		OutPathLen: 3,
		OutPath:    []byte{0x01, 0x02, 0x03},
	}
	for i := range c.PublicKey {
		c.PublicKey[i] = byte(i)
	}

	got, err := DecodeContact(EncodeContact(c))
	if err != nil {
		t.Fatalf("DecodeContact: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestContactUnknownOutPath(t *testing.T) {
	c := Contact{AdvName: "x", OutPathLen: -1}
	got, err := DecodeContact(EncodeContact(c))
	if err != nil {
		t.Fatalf("DecodeContact: %v", err)
	}
	if got.OutPathLen != -1 {
		t.Errorf("expected OutPathLen -1, got %d", got.OutPathLen)
	}
	if len(got.OutPath) != 0 {
		t.Errorf("expected no out_path bytes, got %v", got.OutPath)
	}
}

// TestChannelDefaultSecret verifies scenario S3: channel 0's well-known
// secret hex literal round-trips exactly.
func TestChannelDefaultSecret(t *testing.T) {
	ch := Channel{Index: 0, Name: "public", Secret: DefaultChannelSecret}

	wire := EncodeChannel(ch)
	if len(wire) != ChannelRecordSize {
		t.Fatalf("expected %d-byte record, got %d", ChannelRecordSize, len(wire))
	}

	got, err := DecodeChannel(wire)
	if err != nil {
		t.Fatalf("DecodeChannel: %v", err)
	}
	if diff := cmp.Diff(ch, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !got.Encrypted() {
		t.Error("expected default channel secret to report Encrypted() true")
	}
}

func TestChannelNamePadding(t *testing.T) {
	ch := Channel{Index: 5, Name: "short"}
	wire := EncodeChannel(ch)

	for i, b := range wire[1+len("short") : 1+channelNameFieldLen] {
		if b != 0 {
			t.Errorf("expected NUL padding at offset %d, got 0x%02x", i, b)
		}
	}

	got, err := DecodeChannel(wire)
	if err != nil {
		t.Fatalf("DecodeChannel: %v", err)
	}
	if got.Name != "short" {
		t.Errorf("expected name 'short', got %q", got.Name)
	}
}

func TestContactMessageRoundTrip(t *testing.T) {
	payload := append([]byte{0x01, 0x00, 0x80, 0x00, 0x92, 0x65}, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}...)
	payload = append(payload, []byte("hello mesh")...)

	m, ok := DecodeContactMessage(payload)
	if !ok {
		t.Fatal("DecodeContactMessage returned false")
	}
	if m.Content != "hello mesh" {
		t.Errorf("content mismatch: %q", m.Content)
	}
	if m.Timestamp != 1704067200 {
		t.Errorf("timestamp mismatch: %d", m.Timestamp)
	}
}

func TestContactMessageTooShortReturnsFalse(t *testing.T) {
	if _, ok := DecodeContactMessage([]byte{0x01, 0x02}); ok {
		t.Error("expected DecodeContactMessage to report false on short payload, not panic or succeed")
	}
}

func TestChannelMessageTrailingNUL(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x00, 0x00, 0x00, 0x00}
	payload = append(payload, []byte("hi")...)
	payload = append(payload, 0x00)

	m, ok := DecodeChannelMessage(payload)
	if !ok {
		t.Fatal("DecodeChannelMessage returned false")
	}
	if m.Content != "hi" {
		t.Errorf("content mismatch: %q", m.Content)
	}
	if m.ChannelIdx != 2 {
		t.Errorf("channel index mismatch: %d", m.ChannelIdx)
	}
}

func TestRadioParamsRoundTrip(t *testing.T) {
	p := RadioParams{FreqKhz: 915000, BwKhz: 250000, SF: 10, CR: 5}
	got, err := DecodeRadioParams(EncodeRadioParams(p))
	if err != nil {
		t.Fatalf("DecodeRadioParams: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRadioStatsRoundTrip(t *testing.T) {
	s := RadioStats{NoiseFloor: -95, LastRSSI: -42, LastSNRScaled: 28, TxAirSecs: 1200, RxAirSecs: 5400}
	got, err := DecodeRadioStats(EncodeRadioStats(s))
	if err != nil {
		t.Fatalf("DecodeRadioStats: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.LastSNR() != 7.0 {
		t.Errorf("expected SNR 7.0, got %v", got.LastSNR())
	}
}

func TestBattAndStorageRoundTrip(t *testing.T) {
	b := BattAndStorage{BatteryMv: 4120, UsedKb: 512, TotalKb: 8192}
	got, err := DecodeBattAndStorage(EncodeBattAndStorage(b))
	if err != nil {
		t.Fatalf("DecodeBattAndStorage: %v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvertPathRoundTrip(t *testing.T) {
	a := AdvertPath{ReceivedTs: 1704067200, Path: []byte{0x01, 0x02, 0x03}}
	got, err := DecodeAdvertPath(EncodeAdvertPath(a))
	if err != nil {
		t.Fatalf("DecodeAdvertPath: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPathDiscoveryResultRoundTrip(t *testing.T) {
	r := PathDiscoveryResult{InPath: []byte{0x01, 0x02}, OutPath: []byte{0x03}}
	got, err := DecodePathDiscoveryResult(EncodePathDiscoveryResult(r))
	if err != nil {
		t.Fatalf("DecodePathDiscoveryResult: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPathDiscoveryResultDirect(t *testing.T) {
	r := PathDiscoveryResult{}
	got, err := DecodePathDiscoveryResult(EncodePathDiscoveryResult(r))
	if err != nil {
		t.Fatalf("DecodePathDiscoveryResult: %v", err)
	}
	if len(got.InPath) != 0 || len(got.OutPath) != 0 {
		t.Errorf("expected direct (empty) path, got %+v", got)
	}
}

func TestNeighbourListDecode(t *testing.T) {
	payload := []byte{byte(PushCodeStatusResponse), 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x05}
	n1 := append([]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, 0x0a, 0x00, 0x14)
	n2 := append([]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, 0x1e, 0x00, 0xf4) // -12 scaled
	payload = append(payload, n1...)
	payload = append(payload, n2...)

	list, err := DecodeNeighbourList(payload)
	if err != nil {
		t.Fatalf("DecodeNeighbourList: %v", err)
	}
	if list.Tag != 1 {
		t.Errorf("tag mismatch: %d", list.Tag)
	}
	if len(list.Neighbours) != 2 {
		t.Fatalf("expected 2 neighbours, got %d", len(list.Neighbours))
	}
	if list.Neighbours[0].SecsAgo != 10 {
		t.Errorf("secs_ago mismatch: %d", list.Neighbours[0].SecsAgo)
	}
}

func TestStatusInfoRoundTrip(t *testing.T) {
	s := StatusInfo{BatteryMv: 3900, UptimeSecs: 86400, CurrTxQueueLen: 2, NoiseFloor: -100}
	got, err := DecodeStatusInfo(EncodeStatusInfo(s))
	if err != nil {
		t.Fatalf("DecodeStatusInfo: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvertisementRoundTrip(t *testing.T) {
	a := Advertisement{Timestamp: 1704067200, Flags: 0x01, Name: "repeater-1", LatitudeI: 123456, LongitudeI: -654321}
	for i := range a.PublicKey {
		a.PublicKey[i] = byte(255 - i)
	}

	got, err := DecodeAdvertisement(EncodeAdvertisement(a))
	if err != nil {
		t.Fatalf("DecodeAdvertisement: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBinaryResponseRoundTrip(t *testing.T) {
	br := EncodeBinaryResponse(PushCodeBinaryResponse, 0xDEADBEEF, []byte("inner"))
	got, err := DecodeBinaryResponse(br)
	if err != nil {
		t.Fatalf("DecodeBinaryResponse: %v", err)
	}
	if got.Tag != 0xDEADBEEF {
		t.Errorf("tag mismatch: 0x%08x", got.Tag)
	}
	if string(got.Payload) != "inner" {
		t.Errorf("payload mismatch: %q", got.Payload)
	}
}

func TestSuggestedTimeout(t *testing.T) {
	// S5: RESP_CODE_SENT with suggested_timeout_ms=5000 at bytes 6..=9.
	payload := make([]byte, 10)
	payload[0] = byte(RespCodeSent)
	payload[6] = 0x88
	payload[7] = 0x13
	payload[8] = 0x00
	payload[9] = 0x00

	ms, ok := SuggestedTimeout(payload)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if ms != 5000 {
		t.Errorf("expected 5000ms, got %d", ms)
	}
}

// TestDeriveChannelSecret verifies DeriveChannelSecret against a
// reference SHA-256 computed directly, rather than a hardcoded
// literal, since transcribing a truncated digest by hand is error-prone.
func TestDeriveChannelSecret(t *testing.T) {
	sum := sha256.Sum256([]byte("#MyChannel"))
	var want [16]byte
	copy(want[:], sum[:16])

	got := DeriveChannelSecret("#MyChannel")
	if got != want {
		t.Errorf("derive(#MyChannel) = %x, want %x", got, want)
	}
}

func TestDefaultChannelSecretHex(t *testing.T) {
	want := "8b3387e9c5cdea6ac9e5edbaa115cd72"
	got := hexString(DefaultChannelSecret[:])
	if got != want {
		t.Errorf("DefaultChannelSecret hex = %s, want %s", got, want)
	}
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0x0f]
	}
	return string(out)
}

func TestIsHashtagChannel(t *testing.T) {
	cases := map[string]bool{"#general": true, "general": false, "": false, "#": true}
	for name, want := range cases {
		if got := IsHashtagChannel(name); got != want {
			t.Errorf("IsHashtagChannel(%q) = %v, want %v", name, got, want)
		}
	}
}
