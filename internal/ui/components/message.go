// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// minBubbleWidth keeps bubbles readable in very narrow panes.
const minBubbleWidth = 20

// MessageRenderer turns thread messages into styled bubbles. Assistant
// text goes through glamour when markdown is enabled.
type MessageRenderer struct {
	theme     *styles.Theme
	markdown  bool
	showStats bool
	width     int
	md        *glamour.TermRenderer
}

// NewMessageRenderer creates a renderer. Call SetWidth before Render.
func NewMessageRenderer(theme *styles.Theme, markdown, showStats bool) *MessageRenderer {
	return &MessageRenderer{
		theme:     theme,
		markdown:  markdown,
		showStats: showStats,
		width:     80,
	}
}

// SetWidth sets the pane width. The markdown renderer is rebuilt only when
// the width actually changes since glamour wraps at construction time.
func (r *MessageRenderer) SetWidth(width int) {
	if width == r.width && r.md != nil {
		return
	}
	r.width = width
	r.md = nil
	if !r.markdown {
		return
	}

	style := "light"
	if r.theme.IsDark {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(r.contentWidth()),
	)
	if err != nil {
		// Plain text is an acceptable fallback.
		return
	}
	r.md = md
}

// bubbleWidth is the bubble's inner width, excluding border and margin.
func (r *MessageRenderer) bubbleWidth() int {
	w := r.width - 4 - 2
	if w < minBubbleWidth {
		return minBubbleWidth
	}
	return w
}

func (r *MessageRenderer) contentWidth() int {
	return r.bubbleWidth() - 2
}

// Render renders one message with its label, attachments and stats.
func (r *MessageRenderer) Render(msg *model.Message) string {
	var body []string

	if text := msg.Text(); text != "" {
		if msg.Role == model.RoleAssistant {
			body = append(body, r.RenderMarkdown(text))
		} else {
			body = append(body, text)
		}
	}
	for _, att := range msg.Attachments() {
		body = append(body, r.renderAttachment(att))
	}

	bubble := r.theme.AssistantBubble
	label := r.theme.AssistantLabel.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleUser {
		bubble = r.theme.UserBubble
		label = r.theme.UserLabel.Render(msg.Role.DisplayName())
	}
	if !msg.CreatedAt.IsZero() {
		label += " " + r.theme.Stats.Render(msg.CreatedAt.Local().Format("15:04"))
	}
	if model.IsTempID(msg.ID) {
		label += " " + r.theme.Stats.Render("sending")
	}

	parts := []string{
		label,
		bubble.Width(r.bubbleWidth()).Render(strings.Join(body, "\n")),
	}
	if r.showStats {
		if stats := msg.FormatStats(); stats != "" {
			parts = append(parts, r.theme.Stats.Render(stats))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RenderStreaming renders the in-progress assistant reply. indicator is the
// typing spinner frame, shown alone until the first chunk arrives.
func (r *MessageRenderer) RenderStreaming(content, indicator string) string {
	label := r.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName())
	if content == "" {
		return lipgloss.JoinVertical(lipgloss.Left,
			label,
			r.theme.Typing.Render("typing "+indicator),
		)
	}
	// Partial markdown renders badly, so the live buffer stays plain.
	return lipgloss.JoinVertical(lipgloss.Left,
		label+" "+r.theme.Spinner.Render(indicator),
		r.theme.AssistantBubble.Width(r.bubbleWidth()).Render(content),
	)
}

// RenderMarkdown renders text with glamour, or highlights code fences only
// when markdown is disabled.
func (r *MessageRenderer) RenderMarkdown(text string) string {
	if r.md == nil {
		return HighlightFences(text)
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (r *MessageRenderer) renderAttachment(p model.ContentPart) string {
	line := r.theme.Attachment.Render(p.Label())
	if p.Transcription != "" {
		line += "\n" + r.theme.Stats.Render("transcript: "+p.Transcription)
	}
	return line
}
