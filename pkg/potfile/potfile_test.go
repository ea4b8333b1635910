package potfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwnamap/pkg/models"
)

func TestParseLinePlainForm(t *testing.T) {
	pair, ok := ParseLine("AABBCCDDEEFF:112233445566:MySSID:secretpw")
	require.True(t, ok)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", pair.BSSID)
	assert.Equal(t, "secretpw", pair.Password)
}

func TestParseLineShortForm(t *testing.T) {
	pair, ok := ParseLine("a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6:AABBCCDDEEFF:112233445566:MySSID:secretpw")
	require.True(t, ok)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", pair.BSSID)
	assert.Equal(t, "secretpw", pair.Password)
}

func TestParseLinePMKIDHashForm(t *testing.T) {
	pair, ok := ParseLine("WPA*01*PMKID*aabbccddeeff*112233445566*4d7953534944:secretpw")
	require.True(t, ok)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", pair.BSSID)
	assert.Equal(t, "secretpw", pair.Password)
}

func TestParseLineEAPOLHashForm(t *testing.T) {
	pair, ok := ParseLine("WPA*02*aabbccddeeff*112233445566*4d7953534944*0011:secretpw")
	require.True(t, ok)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", pair.BSSID)
	assert.Equal(t, "secretpw", pair.Password)
}

func TestParseLineKeyValueFallback(t *testing.T) {
	pair, ok := ParseLine("cracked BSSID=AABBCCDDEEFF station=112233445566:hunter2")
	require.True(t, ok)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", pair.BSSID)
	assert.Equal(t, "hunter2", pair.Password)
}

func TestParseLineSkips(t *testing.T) {
	cases := []string{
		"",
		"# comment",
		"no colon here",
		"nothex:zz2233445566:MySSID:pw",
		"AABBCCDDEEFF:112233445566:MySSID:", // empty password
	}
	for _, line := range cases {
		if _, ok := ParseLine(line); ok {
			t.Errorf("expected no match for %q", line)
		}
	}
}

func TestParseLineNeverCaseFoldsPassword(t *testing.T) {
	pair, ok := ParseLine("AABBCCDDEEFF:112233445566:MySSID:PaSsWoRd!")
	require.True(t, ok)
	assert.Equal(t, "PaSsWoRd!", pair.Password)
}

func TestDedupPrefersNonEmptyPassword(t *testing.T) {
	forward := []models.CrackedPair{
		{BSSID: "AA:BB:CC:DD:EE:FF", Password: ""},
		{BSSID: "AA:BB:CC:DD:EE:FF", Password: "hunter2"},
	}
	got := Dedup(forward)
	require.Len(t, got, 1)
	assert.Equal(t, "hunter2", got[0].Password)

	backward := []models.CrackedPair{
		{BSSID: "AA:BB:CC:DD:EE:FF", Password: "hunter2"},
		{BSSID: "AA:BB:CC:DD:EE:FF", Password: ""},
	}
	got = Dedup(backward)
	require.Len(t, got, 1)
	assert.Equal(t, "hunter2", got[0].Password)
}

func TestDedupKeepsFirstNonEmpty(t *testing.T) {
	got := Dedup([]models.CrackedPair{
		{BSSID: "AA:BB:CC:DD:EE:FF", Password: "first"},
		{BSSID: "AA:BB:CC:DD:EE:FF", Password: "second"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Password)
}

func TestDedupRejectsNonCanonicalAddress(t *testing.T) {
	got := Dedup([]models.CrackedPair{
		{BSSID: "AABBCCDDEEFF", Password: "pw"},
		{BSSID: "aa:bb:cc:dd:ee:ff", Password: "pw"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", got[0].BSSID)
}

func TestParseTextEndToEnd(t *testing.T) {
	text := "# header\n" +
		"AABBCCDDEEFF:112233445566:MySSID:secretpw\n" +
		"garbage\n" +
		"WPA*02*aabbccddeeff*112233445566*4d7953534944*0011:ignored-duplicate\n" +
		"001122334455:665544332211:Other:pw2\n"
	pairs := ParseText(text)
	require.Len(t, pairs, 2)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", pairs[0].BSSID)
	assert.Equal(t, "secretpw", pairs[0].Password)
	assert.Equal(t, "00:11:22:33:44:55", pairs[1].BSSID)
}
