package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"pwnamap/pkg/models"
)

// ErrMalformedLocation marks a location document that must reject the
// whole ingestion: unreadable JSON, missing required fields, or
// non-numeric coordinates.
var ErrMalformedLocation = errors.New("malformed location document")

// Timestamp shapes accepted in the "Updated" field. The first group is
// ISO-8601-ish with an optional zone; whatever zone is present gets
// stripped, keeping the literal clock time.
var updatedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseUpdated(s string) (time.Time, error) {
	for _, layout := range updatedLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		// Drop the zone and sub-second precision: storage keys on
		// naive "date" + "time" strings.
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized Updated datetime format: %q", s)
}

// toFloat coerces the loose typing of upstream GPS writers: numbers,
// json.Number and numeric strings are all accepted.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseLocation parses a GPS JSON document into a typed reading.
// Updated, Latitude and Longitude are required; Altitude and Accuracy
// are optional and stay nil when absent.
func ParseLocation(raw []byte) (models.LocationReading, error) {
	var reading models.LocationReading

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return reading, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedLocation, err)
	}

	updatedRaw, ok := doc["Updated"]
	if !ok {
		return reading, fmt.Errorf("%w: missing one of required keys: Updated, Latitude, Longitude", ErrMalformedLocation)
	}
	if _, ok := doc["Latitude"]; !ok {
		return reading, fmt.Errorf("%w: missing one of required keys: Updated, Latitude, Longitude", ErrMalformedLocation)
	}
	if _, ok := doc["Longitude"]; !ok {
		return reading, fmt.Errorf("%w: missing one of required keys: Updated, Latitude, Longitude", ErrMalformedLocation)
	}

	updated := fmt.Sprintf("%v", updatedRaw)
	ts, err := parseUpdated(updated)
	if err != nil {
		return reading, fmt.Errorf("%w: %v", ErrMalformedLocation, err)
	}

	lat, ok := toFloat(doc["Latitude"])
	if !ok {
		return reading, fmt.Errorf("%w: Latitude is not numeric", ErrMalformedLocation)
	}
	lon, ok := toFloat(doc["Longitude"])
	if !ok {
		return reading, fmt.Errorf("%w: Longitude is not numeric", ErrMalformedLocation)
	}

	reading.Timestamp = ts
	reading.Latitude = lat
	reading.Longitude = lon

	if v, present := doc["Altitude"]; present && v != nil {
		alt, ok := toFloat(v)
		if !ok {
			return models.LocationReading{}, fmt.Errorf("%w: Altitude is not numeric", ErrMalformedLocation)
		}
		alt = math.Round(alt*100) / 100
		reading.Altitude = &alt
	}
	if v, present := doc["Accuracy"]; present && v != nil {
		acc, ok := toFloat(v)
		if !ok {
			return models.LocationReading{}, fmt.Errorf("%w: Accuracy is not numeric", ErrMalformedLocation)
		}
		reading.Accuracy = &acc
	}

	return reading, nil
}
