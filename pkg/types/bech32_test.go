package types

import (
	"bytes"
	"strings"
	"testing"
)

func TestBech32_RoundTrip(t *testing.T) {
	tests := [][]byte{
		{},
		{0x00},
		{0xFF},
		{0x01, 0x02, 0x03, 0x04, 0x05},
		bytes.Repeat([]byte{0xAB}, 20),
		bytes.Repeat([]byte{0x00}, 32),
	}
	for _, data := range tests {
		enc, err := Bech32Encode("slc", data)
		if err != nil {
			t.Fatalf("encode %x: %v", data, err)
		}
		hrp, dec, err := Bech32Decode(enc)
		if err != nil {
			t.Fatalf("decode %q: %v", enc, err)
		}
		if hrp != "slc" {
			t.Errorf("hrp = %q, want slc", hrp)
		}
		if !bytes.Equal(dec, data) {
			t.Errorf("round trip %x -> %q -> %x", data, enc, dec)
		}
	}
}

func TestBech32Decode_RejectsCorruption(t *testing.T) {
	enc, err := Bech32Encode("slc", []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Flip one data character.
	idx := len(enc) - 1
	flipped := enc[:idx] + string(bech32Charset[(strings.IndexByte(bech32Charset, enc[idx])+1)%32])
	if _, _, err := Bech32Decode(flipped); err == nil {
		t.Errorf("decode %q: expected checksum error", flipped)
	}
}

func TestBech32Decode_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"noseparator",
		"1startswithsep",
		"slc1",       // Too short for a checksum.
		"slc1qpzrb9", // 'b' is not in the charset.
		"SLC1qqqQQQ", // Mixed case.
	}
	for _, s := range invalid {
		if _, _, err := Bech32Decode(s); err == nil {
			t.Errorf("Bech32Decode(%q): expected error", s)
		}
	}
}

func TestBech32Encode_InvalidHRP(t *testing.T) {
	if _, err := Bech32Encode("", []byte{0x01}); err == nil {
		t.Error("expected error for empty HRP")
	}
	if _, err := Bech32Encode("bad\x00hrp", []byte{0x01}); err == nil {
		t.Error("expected error for control characters in HRP")
	}
}
