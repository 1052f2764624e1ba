// Package logging provides leveled logging and round tracing for moideas.
// It offers two complementary outputs:
//   - A leveled zap.Logger for stderr (operational output)
//   - A RoundTracer for structured JSONL per-round census traces (~/.moideas/rounds.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelTrace is a custom level below Debug for per-round output.
const LevelTrace = zapcore.DebugLevel - 1

// RoundsFileName is the trace file written by RoundTracer.
const RoundsFileName = "rounds.jsonl"

// ParseLevel maps a string level name to a zap level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "trace":
		return LevelTrace
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger creates a leveled, console-encoded zap.Logger writing to w.
func NewLogger(level string, w io.Writer) *zap.Logger {
	lvl := ParseLevel(level)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		// Label the custom trace level
		if l == LevelTrace {
			enc.AppendString("TRACE")
			return
		}
		zapcore.CapitalLevelEncoder(l, enc)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

// RoundTracer writes per-round census events to a JSONL file.
// It is safe for concurrent use. A nil RoundTracer is safe to use;
// all methods are no-ops on nil receiver.
type RoundTracer struct {
	mu   sync.Mutex
	file *os.File
}

// NewRoundTracer creates a tracer writing to dir/rounds.jsonl.
// At "info" level (the default), returns nil — no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewRoundTracer(dir string, level string) *RoundTracer {
	if ParseLevel(level) == zapcore.InfoLevel {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, RoundsFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &RoundTracer{file: f}
}

// Log writes an event as a single JSONL line.
// A "time" field is added automatically. The caller's map is not mutated.
// Safe to call on nil receiver.
func (rt *RoundTracer) Log(event map[string]any) {
	if rt == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
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

// Close closes the underlying file. Safe to call on nil receiver.
func (rt *RoundTracer) Close() {
	if rt == nil {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.file == nil {
		return
	}

	rt.file.Close()
	rt.file = nil
}
