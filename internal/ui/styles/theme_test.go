// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme_ExplicitModes(t *testing.T) {
	if theme := NewTheme(ModeDark); !theme.IsDark {
		t.Error("NewTheme(dark) should report a dark background")
	}
	if theme := NewTheme("LIGHT"); theme.IsDark {
		t.Error("NewTheme(LIGHT) should report a light background")
	}

	NewTheme(ModeDark)
	if !lipgloss.HasDarkBackground() {
		t.Error("NewTheme should pin the lipgloss background")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ModeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Sidebar", theme.Sidebar},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"Composer", theme.Composer},
		{"RetryBanner", theme.RetryBanner},
		{"ErrorBanner", theme.ErrorBanner},
		{"StatusBar", theme.StatusBar},
	}
	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestThemeGetLayoutMode(t *testing.T) {
	theme := NewTheme(ModeLight)

	tests := []struct {
		width   int
		want    LayoutMode
		sidebar bool
	}{
		{40, LayoutNarrow, false},
		{59, LayoutNarrow, false},
		{60, LayoutMedium, true},
		{99, LayoutMedium, true},
		{100, LayoutWide, true},
	}
	for _, tc := range tests {
		theme.SetSize(tc.width, 30)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tc.width, got, tc.want)
		}
		if got := theme.ShowSidebar(); got != tc.sidebar {
			t.Errorf("width %d: ShowSidebar() = %v, want %v", tc.width, got, tc.sidebar)
		}
	}
}
