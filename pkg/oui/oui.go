// Package oui resolves hardware addresses to vendor names using the
// IEEE registry prefix blocks (24, 28 and 36 bits).
package oui

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"pwnamap/pkg/macaddr"
)

// prefix lengths in hex digits: 6 = 24-bit MA-L, 7 = 28-bit MA-M, 9 = 36-bit MA-S
var prefixLengths = []int{9, 7, 6}

// Resolver maps address prefixes to vendor names. The table is loaded
// from a CSV file on first lookup and is read-only afterwards, so
// concurrent lookups need no locking once the load has run.
type Resolver struct {
	csvPath string
	logger  *logrus.Logger

	once     sync.Once
	byLength map[int]map[string]string
}

// NewResolver creates a resolver backed by a CSV file of
// "prefix,vendor" rows. The file is not touched until the first lookup.
func NewResolver(csvPath string, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		csvPath: csvPath,
		logger:  logger,
	}
}

// load reads the CSV table. A missing or unreadable file leaves the
// table empty; every lookup then resolves to unknown.
func (r *Resolver) load() {
	r.byLength = map[int]map[string]string{
		6: {},
		7: {},
		9: {},
	}

	f, err := os.Open(r.csvPath)
	if err != nil {
		r.logger.Warnf("OUI table not loaded from %s: %v", r.csvPath, err)
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Debugf("skipping bad OUI row: %v", err)
			continue
		}
		if len(row) < 2 || strings.HasPrefix(row[0], "#") {
			continue
		}
		prefix := macaddr.StripSeparators(strings.TrimSpace(row[0]))
		vendor := strings.TrimSpace(row[1])
		if vendor == "" || prefix != macaddr.HexDigits(prefix) {
			continue
		}
		if m, ok := r.byLength[len(prefix)]; ok {
			m[prefix] = vendor
		}
	}

	r.logger.Infof("OUI table loaded: %d (24b), %d (28b), %d (36b)",
		len(r.byLength[6]), len(r.byLength[7]), len(r.byLength[9]))
}

// Resolve returns the vendor name for a hardware address, or "" when
// unknown. The most specific prefix wins: a vendor's narrow 36-bit
// allocation must shadow the registrar's containing 24-bit block.
func (r *Resolver) Resolve(address string) string {
	r.once.Do(r.load)

	mac := macaddr.HexDigits(address)
	if len(mac) < 9 {
		return ""
	}
	for _, l := range prefixLengths {
		if vendor, ok := r.byLength[l][mac[:l]]; ok {
			return vendor
		}
	}
	return ""
}
