package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"pwnamap/pkg/models"
)

// fakeConverter writes a shell script that stands in for the external
// converter: it writes the given hash lines to the -o target.
func fakeConverter(t *testing.T, dir, output string) string {
	t.Helper()
	script := "#!/bin/sh\nout=\"$2\"\nprintf '%s' \"$BODY\" > \"$out\"\n"
	path := filepath.Join(dir, "fake-converter.sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	t.Setenv("BODY", output)
	return path
}

func failingConverter(t *testing.T, dir string) string {
	t.Helper()
	script := "#!/bin/sh\necho 'unsupported capture format' >&2\nexit 1\n"
	path := filepath.Join(dir, "failing-converter.sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func writePcap(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "capture.pcap")
	if err := os.WriteFile(path, []byte("stub"), 0644); err != nil {
		t.Fatalf("write pcap: %v", err)
	}
	return path
}

func TestExtractEAPOL(t *testing.T) {
	dir := t.TempDir()
	pcap := writePcap(t, dir)
	out := filepath.Join(dir, "capture.22000")
	body := "comment line\nWPA*02*aabbccddeeff*112233445566*4d7953534944*0011:\n"
	conv := NewConverter(fakeConverter(t, dir, body), 0, logrus.New())

	meta, err := conv.Extract(context.Background(), pcap, out)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if meta.SSID != "MySSID" {
		t.Errorf("ssid = %q", meta.SSID)
	}
	if meta.BSSID != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("bssid = %q", meta.BSSID)
	}
	if meta.Type != models.HashType || meta.Variant != models.VariantEAPOL {
		t.Errorf("tagging = %s/%s", meta.Type, meta.Variant)
	}
}

func TestExtractBadAddressDegradesToAbsent(t *testing.T) {
	dir := t.TempDir()
	pcap := writePcap(t, dir)
	out := filepath.Join(dir, "capture.22000")
	body := "WPA*02*zzzzccddeeff*112233445566*4d7953534944*0011:\n"
	conv := NewConverter(fakeConverter(t, dir, body), 0, logrus.New())

	meta, err := conv.Extract(context.Background(), pcap, out)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if meta.BSSID != "" {
		t.Errorf("invalid address should be absent, got %q", meta.BSSID)
	}
	if meta.SSID != "MySSID" {
		t.Errorf("record should survive a bad address, ssid = %q", meta.SSID)
	}
}

func TestExtractToolFailure(t *testing.T) {
	dir := t.TempDir()
	pcap := writePcap(t, dir)
	conv := NewConverter(failingConverter(t, dir), 0, logrus.New())

	_, err := conv.Extract(context.Background(), pcap, filepath.Join(dir, "out.22000"))
	convErr, ok := err.(*ConversionError)
	if !ok {
		t.Fatalf("expected *ConversionError, got %v", err)
	}
	if convErr.Reason == "" {
		t.Error("diagnostic text missing")
	}
}

func TestExtractNoHashLines(t *testing.T) {
	dir := t.TempDir()
	pcap := writePcap(t, dir)
	out := filepath.Join(dir, "out.22000")
	conv := NewConverter(fakeConverter(t, dir, "nothing useful here\n"), 0, logrus.New())

	if _, err := conv.Extract(context.Background(), pcap, out); err == nil {
		t.Fatal("expected conversion error for output without WPA lines")
	}
}

func TestExtractMissingPcap(t *testing.T) {
	dir := t.TempDir()
	conv := NewConverter(fakeConverter(t, dir, ""), 0, logrus.New())
	if _, err := conv.Extract(context.Background(), filepath.Join(dir, "absent.pcap"), filepath.Join(dir, "o")); err == nil {
		t.Fatal("expected error for missing pcap")
	}
}
