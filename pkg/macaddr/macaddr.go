// Package macaddr normalizes the many spellings of 48-bit hardware
// addresses seen in capture tooling output (colon, dash, bare hex,
// mixed case) into one canonical form.
package macaddr

import (
	"regexp"
	"strings"
)

// CanonicalRE matches the canonical form: six colon-separated hex byte pairs.
var CanonicalRE = regexp.MustCompile(`^(?i)([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// StripSeparators removes colon, dash and dot separators and upper-cases
// the result. It does not validate length.
func StripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' || c == '-' || c == '.' || c == ' ' {
			continue
		}
		b.WriteByte(c)
	}
	return strings.ToUpper(b.String())
}

// HexDigits keeps only hex digits from s, upper-cased.
func HexDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if isHexDigit(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return strings.ToUpper(b.String())
}

// IsHex12 reports whether s is exactly 12 hex digits.
func IsHex12(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// FormatColon renders 12 bare hex digits as the canonical colon form,
// e.g. "aabbccddeeff" -> "AA:BB:CC:DD:EE:FF". Anything that is not 12
// hex digits yields "".
func FormatColon(hex12 string) string {
	h := HexDigits(hex12)
	if len(h) != 12 {
		return ""
	}
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, h[i:i+2])
	}
	return strings.Join(parts, ":")
}

// Normalize accepts colon, dash and bare-hex spellings in any case and
// returns the canonical colon form, or "" when the input is not a valid
// 48-bit address. Invalid input is never an error: callers treat "" as
// "address absent".
func Normalize(s string) string {
	return FormatColon(StripSeparators(s))
}
