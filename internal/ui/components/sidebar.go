// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// linesPerEntry is title plus preview.
const linesPerEntry = 2

// Sidebar renders the conversation list.
type Sidebar struct {
	Conversations []model.Conversation
	Cursor        int    // highlighted row while the sidebar has focus
	CurrentID     string // open conversation
	Focused       bool
	Loading       bool
	Width         int
	Height        int
}

// VisibleRange returns the [start, end) slice of entries that fit, keeping
// the cursor on screen.
func (s Sidebar) VisibleRange() (int, int) {
	rows := (s.Height - 2) / linesPerEntry
	if rows < 1 {
		rows = 1
	}
	n := len(s.Conversations)
	start := 0
	if s.Cursor >= rows {
		start = s.Cursor - rows + 1
	}
	end := start + rows
	if end > n {
		end = n
	}
	return start, end
}

// View renders the sidebar with the given theme.
func (s Sidebar) View(theme *styles.Theme) string {
	inner := s.Width - 2
	if inner < 8 {
		inner = 8
	}

	heading := fmt.Sprintf("Chats (%d)", len(s.Conversations))
	if s.Loading {
		heading += " ..."
	}
	lines := []string{theme.SidebarHeading.Render(heading)}

	if len(s.Conversations) == 0 {
		lines = append(lines, theme.SidebarEmpty.Render("No conversations yet"))
		lines = append(lines, theme.SidebarEmpty.Render("ctrl+n to start one"))
	}

	start, end := s.VisibleRange()
	for i := start; i < end; i++ {
		c := s.Conversations[i]

		marker := "  "
		if c.ID == s.CurrentID {
			marker = "* "
		}
		title := marker + util.TruncateWidth(c.DisplayTitle(), inner-len(marker))

		style := theme.SidebarItem
		if s.Focused && i == s.Cursor {
			style = theme.SidebarSelected
		}
		lines = append(lines, style.Width(inner).Render(title))

		preview := c.LastMessagePreview
		if preview == "" {
			preview = fmt.Sprintf("%d messages", c.MessageCount)
		}
		lines = append(lines, theme.SidebarPreview.Render(
			"  "+util.TruncateWidth(util.SingleLine(preview), inner-2),
		))
	}

	return theme.Sidebar.
		Width(s.Width).
		Height(s.Height).
		Render(strings.Join(lines, "\n"))
}
