// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors so that callers can decide
//              how loudly a failure should be reported.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-19 v0.2.0: Severity table for front-end codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a recoverable input problem, e.g. a syntax error
	// the driver skips past
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that aborts the current operation
	SeverityMedium

	// SeverityHigh indicates misuse of an API or a failing dependency
	SeverityHigh

	// SeverityCritical indicates the process cannot continue
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// codeSeverity lists the codes whose severity differs from SeverityMedium
var codeSeverity = map[Code]Severity{
	CodeUnexpectedToken:            SeverityLow,
	CodeValidationFailed:           SeverityLow,
	CodeInvalidInput:               SeverityLow,
	CodePrecedenceTableUninstalled: SeverityHigh,
	CodeStorageError:               SeverityHigh,
	CodeIO:                         SeverityHigh,
	CodeInternal:                   SeverityCritical,
}

// GetSeverityFromCode returns the severity WithCode assigns to code
func GetSeverityFromCode(code Code) Severity {
	if s, ok := codeSeverity[code]; ok {
		return s
	}
	return SeverityMedium
}
