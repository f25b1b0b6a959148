package audio

import "testing"

func TestDecodeS16LE(t *testing.T) {
	samples := DecodeS16LE([]byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80})
	expected := []int16{1, -1, -32768}

	if len(samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(samples))
	}
	for i, want := range expected {
		if samples[i] != want {
			t.Fatalf("sample %d: expected %d, got %d", i, want, samples[i])
		}
	}
}

func TestDecodeS16LEDropsTrailingByte(t *testing.T) {
	samples := DecodeS16LE([]byte{0x01, 0x00, 0x02})
	if len(samples) != 1 || samples[0] != 1 {
		t.Fatalf("expected the trailing byte to be dropped, got %v", samples)
	}
}

func TestEncodingInfoByteSize(t *testing.T) {
	if got := EncodingLinear16.ByteSize(); got != 2 {
		t.Fatalf("expected linear16 samples to be 2 bytes, got %d", got)
	}
	if got := EncodingMulaw.ByteSize(); got != 1 {
		t.Fatalf("expected mulaw samples to be 1 byte, got %d", got)
	}
	if got := encodingFormat("opus").ByteSize(); got != -1 {
		t.Fatalf("expected unknown formats to report -1, got %d", got)
	}
}

func TestEncodingInfoIsZero(t *testing.T) {
	if GetDefaultEncodingInfo().IsZero() {
		t.Fatalf("expected default encoding to be usable")
	}
	if !(EncodingInfo{}).IsZero() {
		t.Fatalf("expected empty encoding to be zero")
	}
}
