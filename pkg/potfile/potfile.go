// Package potfile parses the heterogeneous text report of previously
// cracked (address, password) pairs. Five incompatible legacy line
// encodings are in the wild; each gets its own recognizer and the first
// one that matches wins. A line that matches nothing is skipped, never
// an error: the source is untrusted and partially malformed by design.
package potfile

import (
	"regexp"
	"strings"

	"pwnamap/pkg/macaddr"
	"pwnamap/pkg/models"
)

const hashLineSentinel = "WPA*"

// Address labels tried by the key=value fallback recognizer.
var keyValueRE = []*regexp.Regexp{
	regexp.MustCompile(`AP=([0-9A-Fa-f]{12})`),
	regexp.MustCompile(`APMAC=([0-9A-Fa-f]{12})`),
	regexp.MustCompile(`BSSID=([0-9A-Fa-f]{12})`),
	regexp.MustCompile(`AP_MAC=([0-9A-Fa-f]{12})`),
	regexp.MustCompile(`BSSID_MAC=([0-9A-Fa-f]{12})`),
}

// hexToMac converts a bare 12-hex-digit field to canonical colon form,
// or "" when the field is anything else.
func hexToMac(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !macaddr.IsHex12(s) {
		return ""
	}
	return macaddr.FormatColon(s)
}

type recognizer func(line string) (models.CrackedPair, bool)

// matchShortForm handles MIC/PMKID:APMAC:STAMAC:SSID:PASS.
func matchShortForm(s string) (models.CrackedPair, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 5 {
		return models.CrackedPair{}, false
	}
	bssid := hexToMac(parts[1])
	pwd := parts[len(parts)-1]
	if bssid == "" || pwd == "" {
		return models.CrackedPair{}, false
	}
	return models.CrackedPair{BSSID: bssid, Password: pwd}, true
}

// matchPlainForm handles APMAC:STAMAC:SSID:PASS.
func matchPlainForm(s string) (models.CrackedPair, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 4 {
		return models.CrackedPair{}, false
	}
	bssid := hexToMac(parts[0])
	pwd := parts[len(parts)-1]
	if bssid == "" || pwd == "" {
		return models.CrackedPair{}, false
	}
	return models.CrackedPair{BSSID: bssid, Password: pwd}, true
}

// matchHashLineForm handles WPA*01*PMKID*AP*STA*...:PASS and
// WPA*02*AP*STA*...:PASS.
func matchHashLineForm(s string) (models.CrackedPair, bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return models.CrackedPair{}, false
	}
	hashpart, pwd := s[:i], s[i+1:]
	if pwd == "" || !strings.HasPrefix(hashpart, hashLineSentinel) {
		return models.CrackedPair{}, false
	}
	seg := strings.Split(hashpart, "*")
	if len(seg) < 3 {
		return models.CrackedPair{}, false
	}
	if seg[1] != "01" && seg[1] != "02" {
		return models.CrackedPair{}, false
	}
	// PMKID layout carries a literal tag before the AP address.
	if len(seg) >= 5 && strings.EqualFold(seg[2], "PMKID") {
		if bssid := hexToMac(seg[3]); bssid != "" {
			return models.CrackedPair{BSSID: bssid, Password: pwd}, true
		}
	}
	if bssid := hexToMac(seg[2]); bssid != "" {
		return models.CrackedPair{BSSID: bssid, Password: pwd}, true
	}
	return models.CrackedPair{}, false
}

// matchKeyValue is the last-resort recognizer: any known address label
// followed by exactly 12 hex digits, password after the first colon.
func matchKeyValue(s string) (models.CrackedPair, bool) {
	for _, re := range keyValueRE {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		bssid := hexToMac(m[1])
		if bssid == "" {
			continue
		}
		i := strings.Index(s, ":")
		if i < 0 {
			return models.CrackedPair{}, false
		}
		pwd := s[i+1:]
		if pwd == "" {
			return models.CrackedPair{}, false
		}
		return models.CrackedPair{BSSID: bssid, Password: pwd}, true
	}
	return models.CrackedPair{}, false
}

var recognizers = []recognizer{
	matchShortForm,
	matchPlainForm,
	matchHashLineForm,
	matchKeyValue,
}

// ParseLine parses one potfile line. The second return value is false
// when no format recognizes the line; that is the normal outcome for
// comments, blanks and junk.
func ParseLine(line string) (models.CrackedPair, bool) {
	s := strings.TrimRight(line, "\r\n")
	if s == "" || strings.HasPrefix(s, "#") {
		return models.CrackedPair{}, false
	}
	for _, match := range recognizers {
		if pair, ok := match(s); ok {
			return pair, ok
		}
	}
	return models.CrackedPair{}, false
}

// ParseText parses every line of a potfile body and deduplicates the
// result.
func ParseText(text string) []models.CrackedPair {
	var pairs []models.CrackedPair
	for _, line := range strings.Split(text, "\n") {
		if pair, ok := ParseLine(line); ok {
			pairs = append(pairs, pair)
		}
	}
	return Dedup(pairs)
}

// Dedup merges pairs by address. Addresses are re-validated against the
// canonical form before use. For a repeated address the first-seen
// password is kept; an empty password is only ever replaced, never the
// other way around.
func Dedup(pairs []models.CrackedPair) []models.CrackedPair {
	best := make(map[string]string)
	var order []string
	for _, p := range pairs {
		if !macaddr.CanonicalRE.MatchString(p.BSSID) {
			continue
		}
		key := strings.ToUpper(p.BSSID)
		cur, seen := best[key]
		if !seen {
			best[key] = p.Password
			order = append(order, key)
			continue
		}
		if cur == "" && p.Password != "" {
			best[key] = p.Password
		}
	}

	out := make([]models.CrackedPair, 0, len(order))
	for _, key := range order {
		out = append(out, models.CrackedPair{BSSID: key, Password: best[key]})
	}
	return out
}
