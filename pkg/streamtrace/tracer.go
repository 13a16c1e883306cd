// Package streamtrace implements the optional per-request stream debug
// log (the STREAM_TRACE_* environment variables): a capped,
// truncate-on-overflow file capturing the raw upstream frames and the
// converted frames sent back to the client for one request.
package streamtrace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// defaultMaxBytes applies when a caller passes a non-positive maxBytes.
const defaultMaxBytes = 256 * 1024

// Tracer writes a request-scoped trace file. All methods are safe to call
// on a nil *Tracer (a no-op), so callers don't need to branch on whether
// tracing is enabled at every call site. Tracer writes are best-effort:
// failures are never surfaced to the client.
type Tracer struct {
	mu        sync.Mutex
	file      *os.File
	maxBytes  int
	written   int
	truncated bool
}

// New creates a request-scoped trace file under dir named
// "<timestamp>_<route>_<requestID>.log". maxBytes <= 0 uses the 256 KiB
// default. On any filesystem failure, New returns nil — tracing degrades
// to a no-op rather than failing the request.
func New(requestID, route, dir string, maxBytes int) *Tracer {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}

	safeRoute := strings.ReplaceAll(route, " ", "-")
	safeRoute = strings.ReplaceAll(safeRoute, "/", "_")
	name := fmt.Sprintf("%s_%s_%s.log", time.Now().UTC().Format("20060102T150405Z"), safeRoute, requestID)

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil
	}

	t := &Tracer{file: f, maxBytes: maxBytes}
	t.note("stream tracer initialized")
	return t
}

// Maybe returns New(...) if enabled, else nil — the factory the gateway
// calls at the top of every streaming handler.
func Maybe(enabled bool, requestID, route, dir string, maxBytes int) *Tracer {
	if !enabled {
		return nil
	}
	return New(requestID, route, dir, maxBytes)
}

// LogSource records one raw upstream frame.
func (t *Tracer) LogSource(chunk string) { t.write("UPSTREAM", chunk) }

// LogConverted records one frame sent back to the client.
func (t *Tracer) LogConverted(chunk string) { t.write("CLIENT", chunk) }

// LogError records a terminal error observed on the stream.
func (t *Tracer) LogError(message string) { t.write("ERROR", message) }

func (t *Tracer) note(message string) { t.write("NOTE", message) }

// Close flushes a final note and closes the underlying file. Safe on nil.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	t.writeLocked("NOTE", "stream tracer closed")
	err := t.file.Close()
	t.file = nil
	return err
}

func (t *Tracer) write(label, payload string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeLocked(label, payload)
}

// writeLocked appends one labeled entry, truncating (once, with a
// trailing marker) when maxBytes would be exceeded — never silently
// dropping bytes without a note that truncation happened.
func (t *Tracer) writeLocked(label, payload string) {
	if t.file == nil || t.truncated {
		return
	}

	entry := fmt.Sprintf("[%s] [%s] len=%d\n%s\n", time.Now().UTC().Format(time.RFC3339Nano), label, len(payload), payload)
	remaining := t.maxBytes - t.written
	if remaining <= 0 {
		t.file.WriteString("[stream trace truncated]\n")
		t.truncated = true
		return
	}

	if len(entry) > remaining {
		t.file.WriteString(entry[:remaining])
		t.file.WriteString("\n[stream trace truncated]\n")
		t.written = t.maxBytes
		t.truncated = true
		return
	}

	t.file.WriteString(entry)
	t.written += len(entry)
}
