// ============================================================================
// kaleido - Front-end for a minimal expression language
// ============================================================================
//
// Package:     version
// Description: Central version management for the CLI and services
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

// Version constants for all kaleido components
const (
	// Platform version
	Platform = "0.2.0"

	// Component versions
	Parser  = "0.2.0"
	Server  = "0.2.0"
	History = "0.1.0"
	TUI     = "0.1.0"
)

// ServiceVersion returns the version for a given component name
func ServiceVersion(name string) string {
	switch name {
	case "parser":
		return Parser
	case "server":
		return Server
	case "history":
		return History
	case "tui":
		return TUI
	default:
		return Platform
	}
}
