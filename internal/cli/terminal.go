// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the olympus CLI.
//
// Piped output gets no colors and no markdown styling; NO_COLOR and
// FORCE_COLOR override detection.

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40

	// MaxTerminalWidth caps wrapping on very wide terminals
	MaxTerminalWidth = 120
)

// GetTerminalWidth returns the usable terminal width.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return min(max(width, MinTerminalWidth), MaxTerminalWidth)
}

// =============================================================================
// COLOR CONTROL
// =============================================================================

var (
	colorOverride   *bool
	colorOverrideMu sync.RWMutex
)

// ColorsEnabled reports whether colored output should be used.
// Precedence: ForceColorsEnabled, NO_COLOR, FORCE_COLOR, stdout TTY.
func ColorsEnabled() bool {
	colorOverrideMu.RLock()
	override := colorOverride
	colorOverrideMu.RUnlock()
	if override != nil {
		return *override
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if v := os.Getenv("FORCE_COLOR"); v != "" && v != "0" {
		return true
	}
	return IsStdoutTTY()
}

// ForceColorsEnabled overrides color detection (--no-color, tests).
func ForceColorsEnabled(enabled bool) {
	colorOverrideMu.Lock()
	colorOverride = &enabled
	colorOverrideMu.Unlock()
}

// GetColorProfile returns the termenv profile matching ColorsEnabled.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
