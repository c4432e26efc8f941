// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains rendering for the chat screen. Layout, top to bottom:
// header, sidebar beside the thread, banners, pending files, composer,
// status bar.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/ui/components"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar().View(m.theme), body)
	}

	sections := []string{
		components.Header(m.theme, m.snap.Current, m.width),
		body,
	}
	if bottom := m.bottomView(); bottom != "" {
		sections = append(sections, bottom)
	}
	sections = append(sections, m.statusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// refresh recomputes the layout and the thread content. The viewport
// stays pinned to the bottom if it was there already.
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	const headerHeight, statusHeight = 1, 1
	vpHeight := m.height - headerHeight - statusHeight - lipgloss.Height(m.bottomView())
	if vpHeight < 3 {
		vpHeight = 3
	}

	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.Width = m.threadWidth()
	m.viewport.Height = vpHeight
	m.viewport.SetContent(m.threadView())
	if follow {
		m.viewport.GotoBottom()
	}
}

// threadWidth is the width left for the thread beside the sidebar.
func (m Model) threadWidth() int {
	if !m.theme.ShowSidebar() {
		return m.width
	}
	// Sidebar width plus its right border.
	return max(m.width-m.ui.SidebarWidth-1, 20)
}

func (m Model) sidebar() components.Sidebar {
	return components.Sidebar{
		Conversations: m.snap.Conversations,
		Cursor:        m.cursor,
		CurrentID:     m.snap.CurrentID(),
		Focused:       m.focus == focusSidebar,
		Loading:       m.snap.IsLoading,
		Width:         m.ui.SidebarWidth,
		Height:        m.viewport.Height,
	}
}

// threadView renders every message plus the live streaming bubble.
func (m Model) threadView() string {
	if len(m.snap.Messages) == 0 && !m.snap.IsStreaming {
		hint := "Start a new conversation. Attach files with ctrl+o or ctrl+v."
		if m.snap.IsLoading {
			hint = "Loading " + m.spinner.View()
		}
		return m.theme.EmptyThread.Render(hint)
	}

	blocks := make([]string, 0, len(m.snap.Messages)+1)
	for _, msg := range m.snap.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	if m.snap.IsStreaming {
		blocks = append(blocks, m.renderer.RenderStreaming(m.snap.StreamingContent, m.spinner.View()))
	}
	return strings.Join(blocks, "\n\n")
}

// renderMessage caches bubbles by id. Server messages never change; temp
// ids are re-rendered since they are replaced on reconcile.
func (m Model) renderMessage(msg *model.Message) string {
	if model.IsTempID(msg.ID) {
		return m.renderer.Render(msg)
	}
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	out := m.renderer.Render(msg)
	m.rendered[msg.ID] = out
	return out
}

// bottomView renders everything between the thread and the status bar.
func (m Model) bottomView() string {
	var parts []string
	if banner := components.RetryBanner(m.theme, m.snap, m.width); banner != "" {
		parts = append(parts, banner)
	}
	if line := components.ErrorLine(m.theme, m.snap, m.width); line != "" {
		parts = append(parts, line)
	}
	if m.notice != "" {
		parts = append(parts, m.theme.Typing.Render(m.notice))
	}
	if strip := m.strip.View(m.theme, m.snap.PendingFiles, m.width); strip != "" {
		parts = append(parts, strip)
	}

	if m.focus == focusPathPrompt {
		parts = append(parts, m.theme.PathPrompt.Render(
			m.theme.PathPromptLabel.Render("Attach file")+"\n"+m.pathPrompt.View(),
		))
	} else {
		style := m.theme.Composer
		if m.focus == focusComposer {
			style = m.theme.ComposerFocused
		}
		parts = append(parts, style.Render(m.composer.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) statusBar() string {
	return components.StatusBar{
		Status:    components.StatusFor(m.snap),
		Model:     m.snap.ModelPreference,
		Ready:     m.snap.ReadyFiles(),
		Pending:   len(m.snap.PendingFiles),
		Shortcuts: m.keys.shortcuts(m.focus),
		Width:     m.width,
	}.View(m.theme)
}
