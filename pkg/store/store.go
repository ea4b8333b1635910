// Package store persists captured network records in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"pwnamap/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// InsertFailed is the sentinel id returned when a record could not be
// inserted. A storage error on one record must not abort a batch
// upload flow, so it surfaces as a value, not an error.
const InsertFailed int64 = -1

// Store wraps the networks table.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	return db, nil
}

// NewStore creates a store over an open database handle.
func NewStore(db *sql.DB, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{db: db, logger: logger}
}

// Init creates the schema when missing.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InsertNetwork inserts a record, ignoring duplicates on
// (bssid, date, time) when bssid is non-null. It returns the new row
// id, the existing row id for a duplicate, or InsertFailed on a
// storage error. Password is never set here; correlation sync owns it.
func (s *Store) InsertNetwork(ctx context.Context, rec models.NetworkRecord) int64 {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO networks (
			ssid, bssid, vendor,
			date, time,
			hash_type, hash_variant,
			lat, lon, alt, accuracy,
			password
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.SSID, rec.BSSID, rec.Vendor,
		rec.Date, rec.Time,
		rec.HashType, rec.HashVariant,
		rec.Lat, rec.Lon, rec.Alt, rec.Accuracy,
		rec.Password)
	if err != nil {
		s.logger.Errorf("insert network record: %v", err)
		return InsertFailed
	}

	affected, err := res.RowsAffected()
	if err != nil {
		s.logger.Errorf("insert network record: rows affected: %v", err)
		return InsertFailed
	}

	if affected == 0 && rec.BSSID != nil {
		// The unique index swallowed a duplicate; hand back the
		// existing row's id.
		var id int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM networks WHERE bssid = ? AND date = ? AND time = ?`,
			rec.BSSID, rec.Date, rec.Time).Scan(&id)
		if err != nil {
			s.logger.Errorf("duplicate lookup for %s @ %s %s: %v", *rec.BSSID, rec.Date, rec.Time, err)
			return InsertFailed
		}
		s.logger.Warnf("duplicate record ignored for BSSID=%s @ %s %s (existing id=%d)",
			*rec.BSSID, rec.Date, rec.Time, id)
		return id
	}

	id, err := res.LastInsertId()
	if err != nil {
		s.logger.Errorf("insert network record: last insert id: %v", err)
		return InsertFailed
	}
	return id
}

// BulkUpdatePasswords applies cracked pairs to stored records. Only
// records whose normalized address matches and whose password is still
// blank are touched, so re-running the same batch is a no-op. Each
// pair is its own statement; a failed pair is logged and skipped.
func (s *Store) BulkUpdatePasswords(ctx context.Context, pairs []models.CrackedPair) int64 {
	var updated int64
	for _, p := range pairs {
		if p.BSSID == "" || p.Password == "" {
			continue
		}
		res, err := s.db.ExecContext(ctx, `
			UPDATE networks
			   SET password = ?
			 WHERE REPLACE(REPLACE(UPPER(TRIM(bssid)), ':', ''), '-', '') =
			       REPLACE(REPLACE(UPPER(TRIM(?)),     ':', ''), '-', '')
			   AND (password IS NULL OR TRIM(password) = '')
		`, p.Password, p.BSSID)
		if err != nil {
			s.logger.Warnf("password update for %s: %v", p.BSSID, err)
			continue
		}
		if n, err := res.RowsAffected(); err == nil {
			updated += n
		}
	}
	return updated
}

// Stats returns the counter set served by the stats endpoint.
func (s *Store) Stats(ctx context.Context) (map[string]int64, error) {
	queries := map[string]string{
		"total":       `SELECT COUNT(*) FROM networks`,
		"with_coords": `SELECT COUNT(*) FROM networks WHERE lat IS NOT NULL AND lon IS NOT NULL`,
		"cracked":     `SELECT COUNT(*) FROM networks WHERE password IS NOT NULL AND TRIM(password) != ''`,
		"uncracked":   `SELECT COUNT(*) FROM networks WHERE password IS NULL OR TRIM(password) = ''`,
		"empty_bssid": `SELECT COUNT(*) FROM networks WHERE bssid IS NULL OR TRIM(bssid) = ''`,
	}
	out := make(map[string]int64, len(queries))
	for name, q := range queries {
		var n int64
		if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return nil, fmt.Errorf("stats %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}
