package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pwnamap/pkg/macaddr"
	"pwnamap/pkg/models"
)

// DefaultConverterCommand is the external capture-to-hash converter.
const DefaultConverterCommand = "hcxpcapngtool"

// DefaultConverterTimeout bounds the converter subprocess. The tool
// normally finishes in well under a second; a hung process must not
// block an upload request forever.
const DefaultConverterTimeout = 60 * time.Second

// ConversionError reports a converter failure or unusable converter
// output. Ingestion treats it as a soft warning: the record is still
// created, just without hash metadata.
type ConversionError struct {
	Reason string
}

func (e *ConversionError) Error() string {
	return "conversion failed: " + e.Reason
}

// Converter turns capture files into hash-capture metadata by invoking
// the external converter and parsing its first recognized output line.
type Converter struct {
	Command string
	Timeout time.Duration
	logger  *logrus.Logger
}

// NewConverter creates a converter around the given command. An empty
// command falls back to the default tool name resolved via PATH.
func NewConverter(command string, timeout time.Duration, logger *logrus.Logger) *Converter {
	if command == "" {
		command = DefaultConverterCommand
	}
	if timeout <= 0 {
		timeout = DefaultConverterTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Converter{Command: command, Timeout: timeout, logger: logger}
}

// Extract runs the converter on pcapPath, writing hash lines to
// outPath, and returns the parsed metadata of the first WPA line.
// All failure modes return a *ConversionError.
func (c *Converter) Extract(ctx context.Context, pcapPath, outPath string) (*models.HashCapture, error) {
	if _, err := os.Stat(pcapPath); err != nil {
		return nil, &ConversionError{Reason: fmt.Sprintf("pcap not found: %s", pcapPath)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Command, "-o", outPath, pcapPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, &ConversionError{Reason: fmt.Sprintf("%s timed out after %s", c.Command, c.Timeout)}
	}
	if runErr != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		if diag == "" {
			diag = "unknown error"
		}
		return nil, &ConversionError{Reason: fmt.Sprintf("%s failed: %s", c.Command, diag)}
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &ConversionError{Reason: "conversion produced no output file"}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, &ConversionError{Reason: "no recognized hash lines"}
	}

	var first string
	for _, ln := range strings.Split(text, "\n") {
		if strings.HasPrefix(ln, HashLineSentinel) {
			first = ln
			break
		}
	}
	if first == "" {
		return nil, &ConversionError{Reason: "no WPA lines found in converter output"}
	}

	parsed, err := parseHashLine(first)
	if err != nil {
		return nil, &ConversionError{Reason: err.Error()}
	}

	// An unusable AP address degrades to absent, never to a failure:
	// the rest of the record is still worth keeping.
	bssid := ""
	if h := strings.ToLower(macaddr.StripSeparators(parsed.BSSID)); macaddr.IsHex12(h) {
		bssid = macaddr.FormatColon(h)
	} else if parsed.BSSID != "" {
		c.logger.Debugf("discarding unusable AP address %q", parsed.BSSID)
	}

	return &models.HashCapture{
		SSID:    parsed.SSID,
		BSSID:   bssid,
		Type:    models.HashType,
		Variant: parsed.Variant,
	}, nil
}
