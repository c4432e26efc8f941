// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the olympus TUI.

All colors use Lip Gloss AdaptiveColor, so the same palette works on light
and dark terminals. NewTheme either asks the terminal for its background
("auto") or pins it from configuration ("dark", "light").

# Color System (colors.go)

  - Purple - assistant messages, sidebar heading
  - Cyan - user messages, focused composer
  - Emerald - attachments ready to send
  - Amber - uploads in progress, retry banner
  - Rose - errors and exhausted retries

RenderSuccess, RenderError, RenderWarning and RenderInfo prefix messages
with an ASCII indicator so status is readable without color. The line
REPL uses them directly.

# Theme (theme.go)

Theme groups the lipgloss styles for each region of the chat screen:
header, sidebar, thread, composer, pending-file strip, banners and status
bar. GetLayoutMode drives the responsive layout; the sidebar is hidden in
LayoutNarrow.

# Animations (animations.go)

SpinnerConfig describes frame-based spinners and converts to a bubbles
spinner with Bubble. RenderProgressBar draws an ASCII bar for terminals
where the bubbles progress component is not in use.
*/
package styles
