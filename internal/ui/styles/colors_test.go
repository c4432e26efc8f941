// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

// =============================================================================
// COLOR TESTS
// =============================================================================

func TestPaletteColorsDefined(t *testing.T) {
	colors := map[string]struct{ light, dark string }{
		"Purple":  {Purple.Light, Purple.Dark},
		"Cyan":    {Cyan.Light, Cyan.Dark},
		"Emerald": {Emerald.Light, Emerald.Dark},
		"Rose":    {Rose.Light, Rose.Dark},
		"Amber":   {Amber.Light, Amber.Dark},
	}
	for name, c := range colors {
		if c.light == "" || c.dark == "" {
			t.Errorf("%s should define both light and dark variants", name)
		}
	}
}

// =============================================================================
// STATUS RENDER TESTS
// =============================================================================

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.render("upload failed")
			if !strings.Contains(out, tc.indicator) {
				t.Errorf("output %q missing indicator %q", out, tc.indicator)
			}
			if !strings.Contains(out, "upload failed") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}

func TestStatusIndicatorsUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for _, ind := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Pending,
	} {
		if seen[ind] {
			t.Errorf("indicator %q is used twice", ind)
		}
		seen[ind] = true
	}
}
