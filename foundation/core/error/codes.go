// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used by the kaleido front-end. Codes
//              classify failures of the tokenizer and parser as well as the
//              surrounding CLI, storage and service layers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: Reduced to the codes used by the expression front-end

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeIO           Code = "IO_ERROR"

	// Front-end codes
	CodeUnexpectedToken           Code = "UNEXPECTED_TOKEN"
	CodePrecedenceTableUninstalled Code = "PRECEDENCE_TABLE_UNINSTALLED"
	CodeValidationFailed          Code = "VALIDATION_FAILED"

	// Configuration and storage
	CodeConfigError  Code = "CONFIG_ERROR"
	CodeStorageError Code = "STORAGE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeInvalidInput, CodeIO,
		CodeUnexpectedToken, CodePrecedenceTableUninstalled, CodeValidationFailed,
		CodeConfigError, CodeStorageError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeUnexpectedToken, CodeValidationFailed:
		return "syntax"
	case CodePrecedenceTableUninstalled, CodeInternal:
		return "internal"
	case CodeConfigError:
		return "configuration"
	case CodeStorageError, CodeIO:
		return "io"
	default:
		return "generic"
	}
}
