// Package wpasec downloads cracking results from a wpa-sec style
// endpoint and correlates them back onto stored network records.
package wpasec

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pwnamap/pkg/models"
	"pwnamap/pkg/potfile"
)

// UserAgent identifies sync traffic to the results endpoint.
const UserAgent = "PwnamapSync/1.0"

const (
	defaultRetries = 3
	defaultBackoff = 1500 * time.Millisecond
	defaultTimeout = 60 * time.Second
)

// SyncError wraps any failure that aborts a sync run as a whole.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string { return "wpasec sync: " + e.Err.Error() }
func (e *SyncError) Unwrap() error { return e.Err }

// PasswordUpdater is the persistence surface sync needs.
type PasswordUpdater interface {
	BulkUpdatePasswords(ctx context.Context, pairs []models.CrackedPair) int64
}

// Result is the auditable outcome of one sync run.
type Result struct {
	PairsTotal  int                  `json:"cracked_pairs_total"`
	RowsUpdated int64                `json:"rows_updated"`
	Pairs       []models.CrackedPair `json:"cracked_pairs"`
}

// Syncer drives the download-parse-dedup-update pipeline.
type Syncer struct {
	BaseURL string // endpoint base, no trailing slash
	Key     string // API key; query parameter primary, cookie fallback

	HTTPClient *http.Client
	Retries    int
	Backoff    time.Duration // base delay, doubled per attempt
	logger     *logrus.Logger

	store PasswordUpdater
}

// NewSyncer creates a syncer against the given endpoint.
func NewSyncer(baseURL, key string, store PasswordUpdater, logger *logrus.Logger) *Syncer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Syncer{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Key:        key,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Retries:    defaultRetries,
		Backoff:    defaultBackoff,
		logger:     logger,
		store:      store,
	}
}

// sleep waits the given duration but wakes up on context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// get fetches url with retries and exponential backoff. An HTTP error
// status counts as a transport failure.
func (s *Syncer) get(ctx context.Context, url string, cookie *http.Cookie) (string, error) {
	var lastErr error
	delay := s.Backoff
	for attempt := 1; attempt <= s.Retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", UserAgent)
		if cookie != nil {
			req.AddCookie(cookie)
		}

		resp, err := s.HTTPClient.Do(req)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				err = readErr
			} else if resp.StatusCode != http.StatusOK {
				err = fmt.Errorf("HTTP %d", resp.StatusCode)
			} else {
				return string(body), nil
			}
		}

		lastErr = err
		s.logger.Warnf("potfile download attempt %d/%d failed: %v", attempt, s.Retries, err)
		if attempt == s.Retries {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
	return "", fmt.Errorf("GET %s failed: %w", url, lastErr)
}

func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "</html>")
}

// DownloadPairs fetches the potfile and returns the deduplicated
// cracked pairs. The key goes in the query string first; when the
// response yields nothing and looks like a login page (HTML or near
// empty), the same endpoint is retried once with the key as a cookie.
func (s *Syncer) DownloadPairs(ctx context.Context) ([]models.CrackedPair, error) {
	if s.Key == "" {
		return nil, &SyncError{Err: fmt.Errorf("results endpoint key not configured")}
	}

	body, err := s.get(ctx, s.BaseURL+"/?api&dl=1&key="+s.Key, nil)
	if err != nil {
		return nil, &SyncError{Err: err}
	}
	pairs := potfile.ParseText(body)

	if len(pairs) == 0 && (looksLikeHTML(body) || len(body) < 10) {
		s.logger.Info("query-string auth yielded nothing, retrying with cookie")
		body, err = s.get(ctx, s.BaseURL+"/?api&dl=1", &http.Cookie{Name: "key", Value: s.Key})
		if err != nil {
			return nil, &SyncError{Err: err}
		}
		pairs = potfile.ParseText(body)
	}
	return pairs, nil
}

// Sync downloads, parses and applies cracked pairs. The per-pair
// updates are independent statements; a crash mid-run leaves applied
// updates committed and the run is safe to repeat.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	pairs, err := s.DownloadPairs(ctx)
	if err != nil {
		return Result{}, err
	}

	updated := s.store.BulkUpdatePasswords(ctx, pairs)

	res := Result{
		PairsTotal:  len(pairs),
		RowsUpdated: updated,
		Pairs:       pairs,
	}
	if res.Pairs == nil {
		res.Pairs = []models.CrackedPair{}
	}
	s.logger.Infof("wpasec sync: %d pairs, %d rows updated", res.PairsTotal, res.RowsUpdated)
	return res, nil
}
