package models

import (
	"time"
)

// HashVariant is the closed set of key-exchange artifacts a capture can
// yield. Kind codes from the converter map onto exactly these values;
// anything else is a conversion error.
type HashVariant string

const (
	VariantPMKID HashVariant = "PMKID"
	VariantEAPOL HashVariant = "EAPOL"
)

// HashType is the hash family tag attached to every converted capture.
const HashType = "WPA"

// LocationReading is a parsed GPS document attached to a capture.
// Altitude and Accuracy are nil when the document omits them; zero is a
// legitimate value for both, so absence has to be explicit.
type LocationReading struct {
	Timestamp time.Time // naive local time, second precision
	Latitude  float64
	Longitude float64
	Altitude  *float64 // rounded to 2 decimal places
	Accuracy  *float64
}

// HashCapture is the structured result of parsing one converter hash line.
type HashCapture struct {
	SSID    string      // decoded network name, may be empty
	BSSID   string      // canonical colon form, empty when unresolvable
	Type    string      // always HashType
	Variant HashVariant
}

// NetworkRecord is a persisted capture. Nullable columns are pointers;
// Password starts nil and is only ever set by correlation sync.
type NetworkRecord struct {
	ID          int64    `json:"id"`
	SSID        *string  `json:"ssid"`
	BSSID       *string  `json:"bssid"`
	Vendor      *string  `json:"vendor"`
	Date        string   `json:"date"` // "YYYY-MM-DD"
	Time        string   `json:"time"` // "HH:MM:SS"
	HashType    *string  `json:"hash_type"`
	HashVariant *string  `json:"hash_variant"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Alt         *float64 `json:"alt"`
	Accuracy    *float64 `json:"accuracy"`
	Password    *string  `json:"password"`
}

// CrackedPair is one (address, password) pair recovered from a potfile.
type CrackedPair struct {
	BSSID    string `json:"bssid"` // canonical colon form
	Password string `json:"password"`
}
