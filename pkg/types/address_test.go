package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_StringRoundTrip(t *testing.T) {
	addr := Address{0x01, 0x02, 0x03, 0xFF, 0xAB}

	s := addr.String()
	if !strings.HasPrefix(s, MainnetHRP+"1") {
		t.Errorf("String() = %q, want %q prefix", s, MainnetHRP+"1")
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	if parsed != addr {
		t.Errorf("round trip: got %x, want %x", parsed, addr)
	}
}

func TestAddress_TestnetHRP(t *testing.T) {
	SetAddressHRP(TestnetHRP)
	defer SetAddressHRP(MainnetHRP)

	addr := Address{0xAA}
	s := addr.String()
	if !strings.HasPrefix(s, TestnetHRP+"1") {
		t.Errorf("String() = %q, want %q prefix", s, TestnetHRP+"1")
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	if parsed != addr {
		t.Errorf("round trip: got %x, want %x", parsed, addr)
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	hexStr := "00112233445566778899aabbccddeeff00112233"
	parsed, err := ParseAddress(hexStr)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed.Hex() != hexStr {
		t.Errorf("Hex() = %q, want %q", parsed.Hex(), hexStr)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"zz",
		"slc1qqqqq",                // Bad checksum / too short.
		"00112233",                 // Hex but wrong length.
		"slc1invalidchecksum00000", // Corrupt bech32.
	}
	for _, s := range invalid {
		if _, err := ParseAddress(s); err == nil {
			t.Errorf("ParseAddress(%q): expected error", s)
		}
	}
}

func TestAddress_JSON(t *testing.T) {
	addr := Address{0xDE, 0xAD, 0xBE, 0xEF}

	data, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != addr {
		t.Errorf("round trip: got %x, want %x", decoded, addr)
	}
}

func TestAddress_IsZero(t *testing.T) {
	if !(Address{}).IsZero() {
		t.Error("zero address should report IsZero")
	}
	if (Address{0x01}).IsZero() {
		t.Error("non-zero address should not report IsZero")
	}
}
