package main

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/gopacket/pcapgo"
	"github.com/sirupsen/logrus"
)

const userAgent = "pwnamap-uploader/2.0"

type uploaderOptions struct {
	ServerURL   string
	Token       string
	Dir         string
	JournalPath string
	Interval    time.Duration
	MaxBackoff  time.Duration
	Insecure    bool
}

type capturePair struct {
	pcapPath string
	gpsPath  string
}

type uploader struct {
	opts     uploaderOptions
	client   *http.Client
	logger   *logrus.Logger
	uploaded map[string]bool
	backoff  time.Duration
	stop     chan struct{}
}

func newUploader(opts uploaderOptions, logger *logrus.Logger) *uploader {
	transport := &http.Transport{}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &uploader{
		opts:     opts,
		client:   &http.Client{Timeout: 60 * time.Second, Transport: transport},
		logger:   logger,
		uploaded: make(map[string]bool),
		backoff:  2 * time.Second,
		stop:     make(chan struct{}),
	}
}

// readJournal loads the set of already-uploaded capture basenames.
func (u *uploader) readJournal() {
	f, err := os.Open(u.opts.JournalPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			u.uploaded[line] = true
		}
	}
}

func (u *uploader) journalAppend(base string) {
	f, err := os.OpenFile(u.opts.JournalPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		u.logger.Warnf("journal append: %v", err)
		return
	}
	defer f.Close()
	fmt.Fprintln(f, base)
}

// findPairs returns capture pairs where both files exist.
func (u *uploader) findPairs() []capturePair {
	matches, err := filepath.Glob(filepath.Join(u.opts.Dir, "*.pcap"))
	if err != nil {
		return nil
	}
	var pairs []capturePair
	for _, pcapPath := range matches {
		base := strings.TrimSuffix(pcapPath, ".pcap")
		gpsPath := base + ".gps.json"
		if info, err := os.Stat(gpsPath); err == nil && !info.IsDir() {
			pairs = append(pairs, capturePair{pcapPath: pcapPath, gpsPath: gpsPath})
		}
	}
	return pairs
}

// fileStable reports whether a file has stopped growing: either its
// mtime is old enough, or size and mtime hold steady across a recheck.
func fileStable(path string, minAge, recheckDelay time.Duration) bool {
	st1, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(st1.ModTime()) >= minAge {
		return true
	}
	time.Sleep(recheckDelay)
	st2, err := os.Stat(path)
	if err != nil {
		return false
	}
	return st1.Size() == st2.Size() && st1.ModTime().Equal(st2.ModTime())
}

// serverReachable resolves the server host and opens a TCP connection,
// which covers Wi-Fi, BT tethering and USB links alike.
func (u *uploader) serverReachable() bool {
	parsed, err := url.Parse(u.opts.ServerURL)
	if err != nil || parsed.Host == "" {
		return true
	}
	host := parsed.Hostname()
	port := parsed.Port()
	if port == "" {
		if parsed.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// pcapReadable checks the capture header before spending bandwidth on
// an upload. Both classic pcap and pcapng captures are accepted.
func pcapReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, err := pcapgo.NewReader(f); err == nil {
		return true
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	_, err = pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	return err == nil
}

// stopAwareWait sleeps but wakes promptly on shutdown.
func (u *uploader) stopAwareWait(d time.Duration) bool {
	select {
	case <-u.stop:
		return false
	case <-time.After(d):
		return true
	}
}

func (u *uploader) failureWait() {
	jitter := 0.8 + 0.4*rand.Float64()
	wait := time.Duration(float64(u.backoff) * jitter)
	if wait > u.opts.MaxBackoff {
		wait = u.opts.MaxBackoff
	}
	u.stopAwareWait(wait)
	u.backoff *= 2
	if u.backoff > u.opts.MaxBackoff {
		u.backoff = u.opts.MaxBackoff
	}
}

// uploadPair submits one capture pair. True means the pair is done and
// journaled; false means skip for now and retry on a later pass.
func (u *uploader) uploadPair(p capturePair) bool {
	base := filepath.Base(p.pcapPath)

	if !u.serverReachable() {
		u.logger.Debugf("server not reachable, skipping %s", base)
		return false
	}
	if !fileStable(p.pcapPath, 5*time.Second, time.Second) || !fileStable(p.gpsPath, 5*time.Second, time.Second) {
		u.logger.Debugf("files not stable yet for %s", base)
		return false
	}
	if !pcapReadable(p.pcapPath) {
		u.logger.Warnf("unreadable capture header, skipping %s", base)
		return false
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, part := range []struct{ field, path string }{
		{"pcap", p.pcapPath},
		{"gps", p.gpsPath},
	} {
		f, err := os.Open(part.path)
		if err != nil {
			u.logger.Warnf("unable to open %s: %v", part.path, err)
			return false
		}
		fw, err := w.CreateFormFile(part.field, filepath.Base(part.path))
		if err == nil {
			_, err = io.Copy(fw, f)
		}
		f.Close()
		if err != nil {
			u.logger.Warnf("multipart build for %s: %v", base, err)
			return false
		}
	}
	if err := w.Close(); err != nil {
		return false
	}

	req, err := http.NewRequest(http.MethodPost, u.opts.ServerURL, &body)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.opts.Token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Warnf("upload error for %s: %v", base, err)
		u.failureWait()
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		u.logger.Warnf("upload failed for %s: HTTP %d", base, resp.StatusCode)
		u.failureWait()
		return false
	}

	u.journalAppend(base)
	u.uploaded[base] = true
	u.backoff = 2 * time.Second
	u.logger.Infof("uploaded %s (+gps)", base)
	return true
}

// scanOnce walks the current pairs and uploads anything new. Up to
// five attempts per pair per pass.
func (u *uploader) scanOnce() bool {
	hadWork := false
	for _, p := range u.findPairs() {
		select {
		case <-u.stop:
			return hadWork
		default:
		}
		base := filepath.Base(p.pcapPath)
		if u.uploaded[base] {
			continue
		}
		for attempt := 0; attempt < 5 && !u.uploaded[base]; attempt++ {
			if u.uploadPair(p) {
				hadWork = true
				break
			}
			select {
			case <-u.stop:
				return hadWork
			default:
			}
		}
	}
	return hadWork
}

func (u *uploader) run() error {
	u.readJournal()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(u.stop)
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(u.opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", u.opts.Dir, err)
	}

	// Startup jitter avoids a stampede when a fleet reconnects at once.
	if !u.stopAwareWait(time.Duration(rand.Int63n(int64(30 * time.Second)))) {
		return nil
	}

	u.logger.Infof("watching %s, uploading to %s", u.opts.Dir, u.opts.ServerURL)
	u.scanOnce()

	ticker := time.NewTicker(u.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-u.stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// A finished gps.json write completes a pair.
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 &&
				(strings.HasSuffix(ev.Name, ".pcap") || strings.HasSuffix(ev.Name, ".gps.json")) {
				u.scanOnce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			u.logger.Warnf("watcher: %v", err)
		case <-ticker.C:
			u.scanOnce()
		}
	}
}
