package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CapturePaths is the on-disk layout for one stored capture pair:
// base/YYYY-MM/DD/<ssid>_HHMMSS.{pcap,gps.json,22000}.
type CapturePaths struct {
	Dir      string
	PcapPath string
	GPSPath  string
	HashPath string
}

// SafeStem derives a network-name fallback from an uploaded filename:
// the stem up to the first underscore.
func SafeStem(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if i := strings.Index(stem, "_"); i >= 0 {
		return stem[:i]
	}
	return stem
}

// BuildCapturePaths lays out storage paths for a capture taken at ts.
func BuildCapturePaths(baseDir string, ts time.Time, ssid string) CapturePaths {
	dir := filepath.Join(baseDir,
		fmt.Sprintf("%04d-%02d", ts.Year(), ts.Month()),
		fmt.Sprintf("%02d", ts.Day()))
	base := fmt.Sprintf("%s_%02d%02d%02d", ssid, ts.Hour(), ts.Minute(), ts.Second())

	return CapturePaths{
		Dir:      dir,
		PcapPath: filepath.Join(dir, base+".pcap"),
		GPSPath:  filepath.Join(dir, base+".gps.json"),
		HashPath: filepath.Join(dir, base+".22000"),
	}
}
