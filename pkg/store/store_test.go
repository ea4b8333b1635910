package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"pwnamap/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "pwnamap.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	s := NewStore(db, logger)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func testRecord(bssid *string) models.NetworkRecord {
	return models.NetworkRecord{
		SSID:        strPtr("MySSID"),
		BSSID:       bssid,
		Date:        "2025-08-29",
		Time:        "21:05:52",
		HashType:    strPtr("WPA"),
		HashVariant: strPtr("EAPOL"),
		Lat:         f64Ptr(45.1),
		Lon:         f64Ptr(9.2),
	}
}

func TestInsertDuplicateWithAddress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := s.InsertNetwork(ctx, testRecord(strPtr("AA:BB:CC:DD:EE:FF")))
	if first == InsertFailed {
		t.Fatal("first insert failed")
	}
	second := s.InsertNetwork(ctx, testRecord(strPtr("AA:BB:CC:DD:EE:FF")))
	if second != first {
		t.Errorf("duplicate should return existing id %d, got %d", first, second)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["total"] != 1 {
		t.Errorf("total = %d, want 1", stats["total"])
	}
}

func TestNullAddressRecordsNeverMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Same date and time, both without an address: both are kept.
	a := s.InsertNetwork(ctx, testRecord(nil))
	b := s.InsertNetwork(ctx, testRecord(nil))
	if a == InsertFailed || b == InsertFailed {
		t.Fatal("inserts failed")
	}
	if a == b {
		t.Error("null-address records must not be deduplicated")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["total"] != 2 {
		t.Errorf("total = %d, want 2", stats["total"])
	}
	if stats["empty_bssid"] != 2 {
		t.Errorf("empty_bssid = %d, want 2", stats["empty_bssid"])
	}
}

func TestBulkUpdatePasswords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.InsertNetwork(ctx, testRecord(strPtr("AA:BB:CC:DD:EE:FF")))

	pairs := []models.CrackedPair{{BSSID: "AA:BB:CC:DD:EE:FF", Password: "hunter2"}}
	if n := s.BulkUpdatePasswords(ctx, pairs); n != 1 {
		t.Errorf("first run updated %d rows, want 1", n)
	}
	// Idempotence: a set password is never re-updated.
	if n := s.BulkUpdatePasswords(ctx, pairs); n != 0 {
		t.Errorf("second run updated %d rows, want 0", n)
	}
	// Nor overwritten by a different value.
	other := []models.CrackedPair{{BSSID: "AA:BB:CC:DD:EE:FF", Password: "other"}}
	if n := s.BulkUpdatePasswords(ctx, other); n != 0 {
		t.Errorf("overwrite run updated %d rows, want 0", n)
	}
}

func TestBulkUpdateMatchesAcrossSpellings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord(strPtr("aa-bb-cc-dd-ee-ff"))
	s.InsertNetwork(ctx, rec)

	pairs := []models.CrackedPair{{BSSID: "AA:BB:CC:DD:EE:FF", Password: "pw"}}
	if n := s.BulkUpdatePasswords(ctx, pairs); n != 1 {
		t.Errorf("normalized comparison should match dash spelling, got %d", n)
	}
}

func TestGeoJSONFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.InsertNetwork(ctx, testRecord(strPtr("AA:BB:CC:DD:EE:FF")))
	noAddr := testRecord(nil)
	noAddr.Time = "22:00:00"
	s.InsertNetwork(ctx, noAddr)
	s.BulkUpdatePasswords(ctx, []models.CrackedPair{{BSSID: "AA:BB:CC:DD:EE:FF", Password: "pw"}})

	fc, err := s.GeoJSON(ctx, GeoJSONFilter{})
	if err != nil {
		t.Fatalf("geojson: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}

	cracked := true
	fc, err = s.GeoJSON(ctx, GeoJSONFilter{Cracked: &cracked})
	if err != nil {
		t.Fatalf("geojson cracked: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("cracked features = %d, want 1", len(fc.Features))
	}

	hasBSSID := false
	fc, err = s.GeoJSON(ctx, GeoJSONFilter{HasBSSID: &hasBSSID})
	if err != nil {
		t.Fatalf("geojson has_bssid: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("addressless features = %d, want 1", len(fc.Features))
	}

	bbox := [4]float64{9.0, 45.0, 9.5, 45.5}
	fc, err = s.GeoJSON(ctx, GeoJSONFilter{BBox: &bbox})
	if err != nil {
		t.Fatalf("geojson bbox: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("bbox features = %d, want 2", len(fc.Features))
	}

	fc, err = s.GeoJSON(ctx, GeoJSONFilter{Query: "MySS"})
	if err != nil {
		t.Fatalf("geojson query: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("query features = %d, want 2", len(fc.Features))
	}
}
