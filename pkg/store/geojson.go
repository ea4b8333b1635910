package store

import (
	"context"
	"fmt"
	"strings"
)

// GeoJSONFilter narrows the geojson query. Nil pointer fields mean
// "no filter".
type GeoJSONFilter struct {
	BBox     *[4]float64 // minLon, minLat, maxLon, maxLat
	Cracked  *bool
	HasBSSID *bool
	Query    string
	Limit    int
}

// Geometry is a GeoJSON point.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // lon, lat
}

// Feature is one network rendered as a GeoJSON feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is the geojson endpoint payload.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// GeoJSON selects networks matching the filter, newest first, as a
// FeatureCollection. Rows without coordinates are dropped: they cannot
// be placed on a map.
func (s *Store) GeoJSON(ctx context.Context, f GeoJSONFilter) (FeatureCollection, error) {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}

	var where []string
	var params []interface{}

	if f.BBox != nil {
		where = append(where, `lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`)
		params = append(params, f.BBox[1], f.BBox[3], f.BBox[0], f.BBox[2])
	}
	if f.Cracked != nil {
		if *f.Cracked {
			where = append(where, `password IS NOT NULL AND TRIM(password) != ''`)
		} else {
			where = append(where, `(password IS NULL OR TRIM(password) = '')`)
		}
	}
	if f.HasBSSID != nil {
		if *f.HasBSSID {
			where = append(where, `bssid IS NOT NULL AND TRIM(bssid) != ''`)
		} else {
			where = append(where, `(bssid IS NULL OR TRIM(bssid) = '')`)
		}
	}
	if f.Query != "" {
		where = append(where, `(ssid LIKE ? OR vendor LIKE ? OR bssid LIKE ?)`)
		like := "%" + f.Query + "%"
		params = append(params, like, like, like)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 5000
	}

	sqlText := `SELECT id, ssid, bssid, vendor, date, time, hash_type, hash_variant, lat, lon, alt, accuracy, password FROM networks`
	if len(where) > 0 {
		sqlText += " WHERE " + strings.Join(where, " AND ")
	}
	sqlText += " ORDER BY date DESC, time DESC LIMIT ?"
	params = append(params, limit)

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return fc, fmt.Errorf("select networks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                      int64
			ssid, bssid, vendor     *string
			date, timeOfDay         *string
			hashType, hashVariant   *string
			lat, lon, alt, accuracy *float64
			password                *string
		)
		if err := rows.Scan(&id, &ssid, &bssid, &vendor, &date, &timeOfDay,
			&hashType, &hashVariant, &lat, &lon, &alt, &accuracy, &password); err != nil {
			return fc, fmt.Errorf("scan network row: %w", err)
		}
		if lat == nil || lon == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: [2]float64{*lon, *lat}},
			Properties: map[string]interface{}{
				"id":           id,
				"ssid":         ssid,
				"bssid":        bssid,
				"vendor":       vendor,
				"date":         date,
				"time":         timeOfDay,
				"hash_type":    hashType,
				"hash_variant": hashVariant,
				"alt":          alt,
				"accuracy":     accuracy,
				"password":     password,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return fc, fmt.Errorf("iterate network rows: %w", err)
	}
	return fc, nil
}
