// Package logging provides leveled logging and per-run tracing for seatsim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A RunTrace for structured JSONL records of every simulation run
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-run detail.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a supported level. Empty means the default.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "", "warn", "info", "debug", "trace":
		return true
	}
	return false
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// DefaultTraceName is the run trace written under the trace directory when
// tracing is enabled by log level rather than by an explicit file.
const DefaultTraceName = "runs.jsonl"

// TracePath picks the run trace destination. An explicit traceFile always
// wins. Otherwise "debug" and "trace" levels write dir/runs.jsonl, and every
// other level disables tracing by returning "".
func TracePath(level, traceFile, dir string) string {
	if traceFile != "" {
		return traceFile
	}
	if ParseLevel(level) > slog.LevelDebug || dir == "" {
		return ""
	}
	return filepath.Join(dir, DefaultTraceName)
}

// RunTrace appends one JSON object per simulation run to a file.
// It is safe for concurrent use by batch workers. A nil RunTrace is safe to
// use; all methods are no-ops on nil receiver.
type RunTrace struct {
	mu   sync.Mutex
	file *os.File
}

// NewRunTrace opens path for append, creating parent directories.
// An empty path disables tracing and returns nil.
func NewRunTrace(path string) (*RunTrace, error) {
	if path == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &RunTrace{file: f}, nil
}

// Log writes a record as a single JSONL line with a "time" field added.
// The caller's map is not mutated.
func (rt *RunTrace) Log(record map[string]any) {
	if rt == nil {
		return
	}

	entry := make(map[string]any, len(record)+1)
	for k, v := range record {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.file == nil {
		return
	}
	_, _ = rt.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver and more than once.
func (rt *RunTrace) Close() error {
	if rt == nil {
		return nil
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.file == nil {
		return nil
	}
	err := rt.file.Close()
	rt.file = nil
	return err
}
