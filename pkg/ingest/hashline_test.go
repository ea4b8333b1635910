package ingest

import (
	"testing"

	"pwnamap/pkg/models"
)

func TestParsePMKIDLine(t *testing.T) {
	line := "WPA*01*4d4ec1b0d4f4b4f1a2c3d4e5f6a7b8c9*aabbccddeeff*112233445566*4d7953534944***"
	hl, err := parseHashLine(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if hl.Variant != models.VariantPMKID {
		t.Errorf("variant = %s, want PMKID", hl.Variant)
	}
	if hl.BSSID != "aabbccddeeff" {
		t.Errorf("bssid = %q", hl.BSSID)
	}
	if hl.SSID != "MySSID" {
		t.Errorf("ssid = %q, want hex-decoded MySSID", hl.SSID)
	}
}

func TestParseEAPOLLine(t *testing.T) {
	line := "WPA*02*aabbccddeeff*112233445566*4d7953534944*0011223344556677:extra"
	hl, err := parseHashLine(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if hl.Variant != models.VariantEAPOL {
		t.Errorf("variant = %s, want EAPOL", hl.Variant)
	}
	if hl.BSSID != "aabbccddeeff" {
		t.Errorf("bssid = %q", hl.BSSID)
	}
	if hl.Station != "112233445566" {
		t.Errorf("station = %q", hl.Station)
	}
	if hl.SSID != "MySSID" {
		t.Errorf("ssid = %q", hl.SSID)
	}
}

func TestParseHashLineFailures(t *testing.T) {
	cases := []string{
		"not a hash line",
		"WPA*01*PMKID*aabbccddeeff",        // too few PMKID fields
		"WPA*02*aabbccddeeff*112233445566", // too few EAPOL fields
		"WPA*99*aabbccddeeff*112233445566*ssid*x", // unknown kind code
		"WPA*",
	}
	for _, line := range cases {
		if _, err := parseHashLine(line); err == nil {
			t.Errorf("expected failure for %q", line)
		}
	}
}

func TestDecodeESSID(t *testing.T) {
	if got := decodeESSID("4d7953534944"); got != "MySSID" {
		t.Errorf("hex essid decode = %q", got)
	}
	// Not all-hex: passed through unchanged.
	if got := decodeESSID("HomeNet-5G"); got != "HomeNet-5G" {
		t.Errorf("plain essid changed: %q", got)
	}
	// Odd length hex digits are not an encoding.
	if got := decodeESSID("abc"); got != "abc" {
		t.Errorf("odd-length hex treated as encoded: %q", got)
	}
}

func TestSafeStem(t *testing.T) {
	if got := SafeStem("MySSID_210552.pcap"); got != "MySSID" {
		t.Errorf("stem = %q", got)
	}
	if got := SafeStem("plain.pcap"); got != "plain" {
		t.Errorf("stem = %q", got)
	}
}
