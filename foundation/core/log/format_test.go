// File: format_test.go
// Title: Log Format Tests
// Description: Tests for the JSON, text and console formatters.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation of formatter tests
// - 2026-10-19 v0.2.0: Sorted field order

package log

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleEntry() *Entry {
	e := NewEntry(LevelInfo, "parsed a function definition")
	e.Timestamp = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	e.Logger = "kaleido"
	e.Fields["name"] = "foo"
	e.Fields["arity"] = 2
	return e
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"Text", FormatText, false},
		{"console", FormatConsole, false},
		{"xml", FormatJSON, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	data, err := NewJSONFormatter().Format(sampleEntry())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if obj["message"] != "parsed a function definition" || obj["level"] != "info" {
		t.Errorf("unexpected object %v", obj)
	}
	if obj["timestamp"] != "2026-10-19T12:00:00Z" {
		t.Errorf("timestamp = %v", obj["timestamp"])
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	f := NewTextFormatter()
	f.DisableTimestamp = true

	data, err := f.Format(sampleEntry())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "[INF] {kaleido} parsed a function definition [arity=2 name=foo]\n"
	if string(data) != want {
		t.Errorf("Format() = %q, want %q", string(data), want)
	}
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter()
	data, _ := f.Format(sampleEntry())
	if !strings.HasPrefix(string(data), LevelInfo.Color()) {
		t.Errorf("console output should start with the level color: %q", data)
	}

	f.DisableColors = true
	data, _ = f.Format(sampleEntry())
	if strings.Contains(string(data), "\033[") {
		t.Errorf("DisableColors output contains escape codes: %q", data)
	}
}
