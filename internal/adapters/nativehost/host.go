// Package nativehost probes plugin binaries through an external scanner
// process. Loading a plugin can crash or hang, so it never happens in-process.
package nativehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// DefaultBinary is the scanner looked up on PATH when none is configured
const DefaultBinary = "owlplug-scanner"

// Host implements ports.NativeHost by running the scanner binary once per plugin.
// The scanner is invoked as "<binary> --format json <pluginPath>" and prints a
// JSON array of component records.
type Host struct {
	binary  string
	enabled bool
	timeout time.Duration
}

var _ ports.NativeHost = (*Host)(nil)

// Option configures the Host
type Option func(*Host)

// WithBinary sets the scanner binary name or path
func WithBinary(binary string) Option {
	return func(h *Host) {
		if binary != "" {
			h.binary = binary
		}
	}
}

// WithEnabled turns native discovery on or off
func WithEnabled(enabled bool) Option {
	return func(h *Host) {
		h.enabled = enabled
	}
}

// WithTimeout bounds a single scanner run. Zero leaves it to the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// NewHost creates a new scanner host, disabled by default
func NewHost(opts ...Option) *Host {
	h := &Host{
		binary: DefaultBinary,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsEnabled reports whether native discovery is turned on
func (h *Host) IsEnabled() bool {
	return h.enabled
}

// LoaderAvailable checks if the scanner binary can be found
func (h *Host) LoaderAvailable() bool {
	_, err := exec.LookPath(h.binary)
	return err == nil
}

// Binary returns the configured scanner binary
func (h *Host) Binary() string {
	return h.binary
}

// LoadPlugin runs the scanner on path and returns its component records
func (h *Host) LoadPlugin(ctx context.Context, path string) ([]domain.NativePlugin, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, h.binary, "--format", "json", path)
	// a scanner child holding stdout open must not outlive the context
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scanner interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.String()
			}
			return nil, fmt.Errorf("scanner error: %s", msg)
		}
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return parseRecords(string(output))
}

// recordJSON is one component as printed by the scanner
type recordJSON struct {
	Name             string `json:"name"`
	DescriptiveName  string `json:"descriptiveName"`
	Version          string `json:"version"`
	Category         string `json:"category"`
	ManufacturerName string `json:"manufacturerName"`
	FileOrIdentifier string `json:"fileOrIdentifier"`
	UID              int    `json:"uid"`
	IsInstrument     bool   `json:"isInstrument"`
}

var codeBlockRe = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")

// parseRecords extracts the records JSON array from scanner output. Log lines
// around the array and markdown fences are tolerated, also log lines that
// start with a bracket such as "[INFO]". Every record becomes one component,
// including records without a name.
func parseRecords(output string) ([]domain.NativePlugin, error) {
	output = strings.TrimSpace(output)

	if matches := codeBlockRe.FindStringSubmatch(output); len(matches) > 1 {
		output = strings.TrimSpace(matches[1])
	}

	var lastErr error
	for offset := 0; ; {
		i := strings.IndexByte(output[offset:], '[')
		if i == -1 {
			break
		}
		start := offset + i
		offset = start + 1

		var raw []recordJSON
		if err := json.NewDecoder(strings.NewReader(output[start:])).Decode(&raw); err != nil {
			lastErr = err
			continue
		}

		records := make([]domain.NativePlugin, 0, len(raw))
		for _, r := range raw {
			records = append(records, domain.NativePlugin(r))
		}
		return records, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to parse scanner JSON: %w", lastErr)
	}
	return nil, fmt.Errorf("no valid JSON array found in scanner output")
}
