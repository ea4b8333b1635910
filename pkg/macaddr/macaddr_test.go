package macaddr

import "testing"

func TestNormalizeSpellings(t *testing.T) {
	want := "AA:BB:CC:DD:EE:FF"
	inputs := []string{
		"aabbccddeeff",
		"AABBCCDDEEFF",
		"aa:bb:cc:dd:ee:ff",
		"AA:BB:CC:DD:EE:FF",
		"aa-bb-cc-dd-ee-ff",
		"Aa-Bb:Cc-Dd:Ee-Ff",
	}
	for _, in := range inputs {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	inputs := []string{
		"",
		"aabbccddee",      // too short
		"aabbccddeeff00",  // too long
		"aabbccddeegg",    // non-hex
		"hello world",
		"AA:BB:CC:DD:EE",  // five groups
	}
	for _, in := range inputs {
		if got := Normalize(in); got != "" {
			t.Errorf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestIsHex12(t *testing.T) {
	if !IsHex12("aabbccddeeff") {
		t.Error("aabbccddeeff should be valid")
	}
	if IsHex12("aabbccddeef") || IsHex12("aabbccddeefg") {
		t.Error("invalid strings accepted")
	}
}

func TestCanonicalRE(t *testing.T) {
	if !CanonicalRE.MatchString("AA:BB:CC:DD:EE:FF") {
		t.Error("canonical form rejected")
	}
	if !CanonicalRE.MatchString("aa:bb:cc:dd:ee:ff") {
		t.Error("lowercase canonical form rejected")
	}
	if CanonicalRE.MatchString("AA-BB-CC-DD-EE-FF") {
		t.Error("dash form accepted by canonical pattern")
	}
	if CanonicalRE.MatchString("AABBCCDDEEFF") {
		t.Error("bare form accepted by canonical pattern")
	}
}
