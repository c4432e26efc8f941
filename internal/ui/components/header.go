// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Brand is shown at the left of the header.
const Brand = "olympus"

// Header renders the top line: brand, open conversation title and its
// message count.
func Header(theme *styles.Theme, current *model.Conversation, width int) string {
	title := model.DefaultTitle
	meta := "new conversation"
	if current != nil {
		title = current.DisplayTitle()
		meta = fmt.Sprintf("%d messages", current.MessageCount)
	}

	left := theme.HeaderTitle.Render(Brand) + "  " +
		util.TruncateWidth(title, max(width-lipgloss.Width(Brand)-lipgloss.Width(meta)-8, 8))
	right := theme.HeaderMeta.Render(meta)

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return theme.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
