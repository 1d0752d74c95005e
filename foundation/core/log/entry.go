// File: entry.go
// Title: Log Entry Structure
// Description: Defines the log entry structure that holds a single log
//              message together with its fields, error and session id.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with comprehensive log entry structure
// - 2026-10-19 v0.2.0: Session id replaces request/user/correlation ids

package log

import (
	"sort"
	"time"
)

// Entry is one log record as handed to a Formatter
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string // component name

	// SessionID identifies one REPL, CLI or WebSocket session
	SessionID string

	Fields Fields
	Error  error
}

// Fields represents custom key-value pairs for structured logging
type Fields map[string]interface{}

// Merge returns a new Fields with the keys of other overriding f
func (f Fields) Merge(other Fields) Fields {
	result := make(Fields, len(f)+len(other))
	for _, src := range []Fields{f, other} {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// SortedKeys returns the field keys in lexical order, so text output is
// stable between runs
func (f Fields) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewEntry creates an entry stamped with the current time
func NewEntry(level Level, message string) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    Fields{},
	}
}
