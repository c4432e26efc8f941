// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the olympus TUI.
package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// DotsSpinner is the assistant typing indicator.
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// Bubble converts the config into a bubbles spinner definition.
func (s SpinnerConfig) Bubble() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.Duration()}
}

// =============================================================================
// PROGRESS INDICATORS
// =============================================================================

// Progress bar characters for plain-terminal output.
var (
	ProgressFull  = "#"
	ProgressEmpty = "-"
)

// RenderProgressBar creates an ASCII progress bar string.
// width: total width of the bar in characters
// percent: 0-100 percentage complete
func RenderProgressBar(width int, percent float64) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(width) * percent / 100)

	var sb strings.Builder
	sb.Grow(width)
	sb.WriteString(strings.Repeat(ProgressFull, filled))
	sb.WriteString(strings.Repeat(ProgressEmpty, width-filled))
	return sb.String()
}
