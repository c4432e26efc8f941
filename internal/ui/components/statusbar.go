// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// =============================================================================
// STATUS
// =============================================================================

// Status represents what the session is doing right now.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusSending
	StatusStreaming
	StatusUploading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading..."
	case StatusSending:
		return "Sending..."
	case StatusStreaming:
		return "Receiving..."
	case StatusUploading:
		return "Uploading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusError:
		return styles.StatusIndicators.Error
	case StatusStreaming:
		return "~"
	default:
		return styles.StatusIndicators.Pending
	}
}

// StatusFor derives the status from a snapshot. Errors win, then sending,
// then streaming, uploads and loading.
func StatusFor(snap session.Snapshot) Status {
	switch {
	case snap.Error != nil:
		return StatusError
	case snap.IsSending && snap.StreamingContent == "":
		return StatusSending
	case snap.IsStreaming:
		return StatusStreaming
	case snap.UploadsInProgress():
		return StatusUploading
	case snap.IsLoading:
		return StatusLoading
	default:
		return StatusReady
	}
}

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom line: status, model preference, attachment
// count and key hints.
type StatusBar struct {
	Status    Status
	Model     string
	Ready     int
	Pending   int
	Shortcuts []Shortcut
	Width     int
}

// View renders the status bar.
func (s StatusBar) View(theme *styles.Theme) string {
	left := s.Status.Icon() + " " + s.Status.String()
	if s.Model != "" {
		left += "  model: " + s.Model
	}
	if s.Pending > 0 {
		left += fmt.Sprintf("  files: %d/%d ready", s.Ready, s.Pending)
	}

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, shortcut(theme, sc.Key, sc.Desc))
	}
	right := strings.Join(hints, "  ")

	gap := s.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Not enough room: drop the hints, status matters more.
		right = ""
		gap = 1
	}
	return theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func shortcut(theme *styles.Theme, key, desc string) string {
	return theme.ShortcutKey.Render(key) + " " + theme.ShortcutDesc.Render(desc)
}
