// File: level.go
// Title: Log Level Definitions
// Description: Defines log levels for filtering log output of the parser,
//              the driver engine and the services built on top of them.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with standard log levels
// - 2026-10-19 v0.2.0: Dropped the audit level, names kept in one table

package log

import (
	"strings"
)

// Level represents the importance level of a log message
type Level int

const (
	// LevelTrace logs every token the parser consumes
	LevelTrace Level = iota

	// LevelDebug logs parse entry points and results
	LevelDebug

	// LevelInfo represents general informational messages
	LevelInfo

	// LevelWarn indicates recoverable failures such as syntax errors
	LevelWarn

	// LevelError represents failures of I/O, storage or configuration
	LevelError

	// LevelFatal represents errors that terminate the program
	LevelFatal
)

// levelInfo holds the printed forms of one level
type levelInfo struct {
	name  string
	short string
	color string // ANSI, console format only
}

var levels = [...]levelInfo{
	LevelTrace: {"trace", "TRC", "\033[37m"},
	LevelDebug: {"debug", "DBG", "\033[36m"},
	LevelInfo:  {"info", "INF", "\033[32m"},
	LevelWarn:  {"warn", "WRN", "\033[33m"},
	LevelError: {"error", "ERR", "\033[31m"},
	LevelFatal: {"fatal", "FTL", "\033[35m"},
}

// config spellings accepted besides the level names
var levelAliases = map[string]Level{
	"warning": LevelWarn,
	"err":     LevelError,
}

func (l Level) info() (levelInfo, bool) {
	if l < LevelTrace || l > LevelFatal {
		return levelInfo{}, false
	}
	return levels[l], true
}

// String returns the lower-case name, used in JSON output and config
func (l Level) String() string {
	if i, ok := l.info(); ok {
		return i.name
	}
	return "unknown"
}

// ShortString returns the three-letter tag of the text format
func (l Level) ShortString() string {
	if i, ok := l.info(); ok {
		return i.short
	}
	return "???"
}

// Color returns the ANSI color code of the console format
func (l Level) Color() string {
	if i, ok := l.info(); ok {
		return i.color
	}
	return "\033[0m"
}

// ShouldLog reports whether l passes the minimum level
func (l Level) ShouldLog(minLevel Level) bool {
	return l >= minLevel
}

// ParseLevel parses a level name as written in the [general] config section.
// Unknown names yield LevelInfo and a *ParseError.
func ParseLevel(level string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	for l, i := range levels {
		if i.name == name {
			return Level(l), nil
		}
	}
	if l, ok := levelAliases[name]; ok {
		return l, nil
	}
	return LevelInfo, &ParseError{Input: level, Type: "level"}
}

// ParseError represents an invalid log level or format in the config
type ParseError struct {
	Input string
	Type  string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}

// DefaultLevel returns the level of loggers built without configuration
func DefaultLevel() Level {
	return LevelInfo
}
