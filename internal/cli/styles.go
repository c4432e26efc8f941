// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for line-mode output.
//
// Colors come from the TUI palette so both front ends look alike.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// ApplyColorProfile configures lipgloss for the detected terminal. Call it
// after ForceColorsEnabled so --no-color takes effect.
func ApplyColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// PromptStyle renders the input prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// TitleStyle is used for the welcome banner and section titles.
	TitleStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)

	// CommandStyle highlights command names and selected values.
	CommandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// DimStyle is used for secondary information and hints.
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// LabelStyle aligns "Key: value" rows.
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 30
	}
	return SeparatorStyle.Render(strings.Repeat("-", width))
}
