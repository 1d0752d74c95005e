// File: logger_test.go
// Title: Logger Tests
// Description: Tests for logger configuration, context fields, level
//              filtering, coded error logging and timers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with comprehensive logger tests
// - 2026-10-19 v0.2.0: Session ids, LogError with positions, timers

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	kerror "github.com/msto63/kaleido/foundation/core/error"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithConfig(Config{Level: level, Format: format, Output: &buf, Name: "test"}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, obj)
	}
	return out
}

func TestNew(t *testing.T) {
	logger := New()

	if logger == nil {
		t.Fatal("New() should not return nil")
	}
	if logger.GetLevel() != DefaultLevel() {
		t.Errorf("New() level = %v, want %v", logger.GetLevel(), DefaultLevel())
	}
	if logger.contextFields == nil {
		t.Error("New() should initialize context fields")
	}
}

func TestLoggerWithLevel(t *testing.T) {
	logger := New()
	newLogger := logger.WithLevel(LevelDebug)

	if newLogger == logger {
		t.Error("WithLevel() should return a new logger instance")
	}
	if newLogger.GetLevel() != LevelDebug {
		t.Errorf("WithLevel() level = %v, want %v", newLogger.GetLevel(), LevelDebug)
	}
	if logger.GetLevel() != DefaultLevel() {
		t.Error("WithLevel() should not modify original logger")
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatJSON)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown too")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", lines[0]["level"], lines[1]["level"])
	}
}

func TestWithFieldAndSession(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	component := logger.WithField("component", "kaleido-parser").WithSessionID("s-1")
	component.Debug("parsed definition", Fields{"name": "foo"})
	logger.Debug("plain")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["component"] != "kaleido-parser" || lines[0]["name"] != "foo" {
		t.Errorf("missing fields: %v", lines[0])
	}
	if lines[0]["session_id"] != "s-1" {
		t.Errorf("session_id = %v, want s-1", lines[0]["session_id"])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Error("WithField() must not leak into the parent logger")
	}
}

func TestLogErrorCoded(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	err := kerror.New("expected ')' in prototype").
		WithCode(kerror.CodeUnexpectedToken).
		WithPosition(kerror.Position{Line: 2, Column: 5})
	logger.LogError(err)

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	if got["level"] != "warn" {
		t.Errorf("syntax errors should log at warn, got %v", got["level"])
	}
	if got["error_code"] != string(kerror.CodeUnexpectedToken) {
		t.Errorf("error_code = %v", got["error_code"])
	}
	if got["line"] != float64(2) || got["column"] != float64(5) {
		t.Errorf("position fields = %v:%v", got["line"], got["column"])
	}
	if _, ok := got["error_details"]; !ok {
		t.Error("coded errors should include error_details")
	}
}

func TestLogErrorPlain(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatText)

	logger.LogError(errors.New("disk full"))
	logger.LogError(nil)

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	if !strings.Contains(out, "[ERR]") || !strings.Contains(out, "disk full") {
		t.Errorf("unexpected text output %q", out)
	}
}

func TestTimer(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	timer := logger.StartTimer("parse").WithField("source", "stdin")
	if timer.Stop() < 0 {
		t.Error("Stop() returned a negative duration")
	}
	if timer.Stop() != 0 {
		t.Error("second Stop() should return 0")
	}

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["message"] != "parse completed" || lines[0]["source"] != "stdin" {
		t.Errorf("unexpected timer entry %v", lines[0])
	}
	if _, ok := lines[0]["duration_ms"]; !ok {
		t.Error("timer entry should include duration_ms")
	}
}

func TestTimerStopWithError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	logger.StartTimer("load").StopWithError(errors.New("nope"))

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["message"] != "load failed" || lines[0]["success"] != false {
		t.Errorf("unexpected entries %v", lines)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{" DEBUG ", LevelDebug, false},
		{"warning", LevelWarn, false},
		{"err", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	if logger.IsLevelEnabled(LevelError) {
		t.Error("Discard() logger should not enable error level")
	}
}

func TestLevelNames(t *testing.T) {
	tests := []struct {
		level Level
		name  string
		short string
	}{
		{LevelTrace, "trace", "TRC"},
		{LevelWarn, "warn", "WRN"},
		{LevelFatal, "fatal", "FTL"},
		{Level(42), "unknown", "???"},
		{Level(-1), "unknown", "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.level.ShortString(); got != tt.short {
				t.Errorf("ShortString() = %q, want %q", got, tt.short)
			}
			if tt.name != "unknown" {
				if parsed, err := ParseLevel(tt.name); err != nil || parsed != tt.level {
					t.Errorf("ParseLevel(%q) = %v, %v", tt.name, parsed, err)
				}
			}
		})
	}
	if Level(42).Color() != "\033[0m" {
		t.Error("unknown level should reset the color")
	}
}
