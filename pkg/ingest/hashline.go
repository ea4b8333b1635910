package ingest

import (
	"encoding/hex"
	"fmt"
	"strings"

	"pwnamap/pkg/models"
)

// HashLineSentinel starts every usable converter output line.
const HashLineSentinel = "WPA*"

// hashLineSeparator splits the fields of a hash line.
const hashLineSeparator = "*"

// hashLine is one parsed converter output line before address
// normalization.
type hashLine struct {
	Variant models.HashVariant
	BSSID   string // raw field, any spelling
	Station string
	SSID    string // hex-decoded when applicable
}

func isEvenHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// decodeESSID recovers a network name that the capture tool hex-encoded
// to survive non-printable or separator-colliding bytes. Non-hex names
// pass through verbatim; undecodable bytes are dropped.
func decodeESSID(field string) string {
	if !isEvenHex(field) {
		return field
	}
	raw, err := hex.DecodeString(field)
	if err != nil {
		return field
	}
	return strings.ToValidUTF8(string(raw), "")
}

// parseHashLine parses a single 22000-format line. The caller has
// already selected a line starting with HashLineSentinel.
func parseHashLine(line string) (hashLine, error) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, HashLineSentinel) {
		return hashLine{}, fmt.Errorf("not a WPA hash line")
	}

	parts := strings.Split(s, hashLineSeparator)
	if len(parts) < 3 {
		return hashLine{}, fmt.Errorf("truncated hash line")
	}

	switch parts[1] {
	case "01":
		if len(parts) < 6 {
			return hashLine{}, fmt.Errorf("invalid PMKID hash line")
		}
		return hashLine{
			Variant: models.VariantPMKID,
			BSSID:   parts[3],
			Station: parts[4],
			SSID:    decodeESSID(parts[5]),
		}, nil
	case "02":
		// EAPOL lines carry no PMKID tag, so the addresses sit one
		// field earlier than in the 01 layout.
		if len(parts) < 6 {
			return hashLine{}, fmt.Errorf("invalid EAPOL hash line")
		}
		return hashLine{
			Variant: models.VariantEAPOL,
			BSSID:   parts[2],
			Station: parts[3],
			SSID:    decodeESSID(parts[4]),
		}, nil
	default:
		return hashLine{}, fmt.Errorf("unknown hash line kind code: %s", parts[1])
	}
}
