// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the olympus TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarHeading  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarPreview  lipgloss.Style
	SidebarEmpty    lipgloss.Style

	// ==========================================================================
	// THREAD
	// ==========================================================================

	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Attachment      lipgloss.Style
	Stats           lipgloss.Style
	Typing          lipgloss.Style
	EmptyThread     lipgloss.Style

	// ==========================================================================
	// COMPOSER
	// ==========================================================================

	Composer        lipgloss.Style
	ComposerFocused lipgloss.Style
	Prompt          lipgloss.Style

	// ==========================================================================
	// PENDING FILES
	// ==========================================================================

	FileStrip     lipgloss.Style
	FileName      lipgloss.Style
	FileReady     lipgloss.Style
	FileUploading lipgloss.Style
	FileError     lipgloss.Style

	// ==========================================================================
	// BANNERS AND STATUS BAR
	// ==========================================================================

	RetryBanner     lipgloss.Style
	RetryExhausted  lipgloss.Style
	ErrorBanner     lipgloss.Style
	StatusBar       lipgloss.Style
	ShortcutKey     lipgloss.Style
	ShortcutDesc    lipgloss.Style
	Spinner         lipgloss.Style
	PathPrompt      lipgloss.Style
	PathPromptLabel lipgloss.Style
}

// NewTheme creates a theme. mode is "auto", "dark" or "light"; anything
// else is treated as auto, which asks the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	// AdaptiveColor consults the global renderer, so pin it to our answer.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarHeading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(1)

	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(1)

	t.SidebarPreview = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(1)

	t.SidebarEmpty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		PaddingLeft(1)

	// Thread
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.Attachment = lipgloss.NewStyle().
		Foreground(Amber)

	t.Stats = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Typing = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.EmptyThread = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	// Composer
	t.Composer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	t.ComposerFocused = t.Composer.
		BorderForeground(Cyan)

	t.Prompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Pending files
	t.FileStrip = lipgloss.NewStyle().
		Padding(0, 1)

	t.FileName = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.FileReady = lipgloss.NewStyle().
		Foreground(Emerald)

	t.FileUploading = lipgloss.NewStyle().
		Foreground(Amber)

	t.FileError = lipgloss.NewStyle().
		Foreground(Rose)

	// Banners
	t.RetryBanner = lipgloss.NewStyle().
		Foreground(Amber).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Amber).
		PaddingLeft(1)

	t.RetryExhausted = t.RetryBanner.
		Foreground(Rose).
		BorderForeground(Rose)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		PaddingLeft(1)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.PathPrompt = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(0, 1)

	t.PathPromptLabel = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, sidebar hidden
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// ShowSidebar reports whether there is room for the conversation list.
func (t *Theme) ShowSidebar() bool {
	return t.GetLayoutMode() != LayoutNarrow
}
