// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains keyboard handling for each focus area.
package chat

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/olympus-tui/internal/model"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Any key other than a repeated ctrl+d cancels a pending delete.
	if !key.Matches(msg, m.keys.Delete) {
		m.confirmDelete = ""
	}

	switch m.focus {
	case focusPathPrompt:
		return m.handlePathPromptKey(msg)
	case focusSidebar:
		if next, cmd, ok := m.handleGlobalKey(msg); ok {
			return next, cmd
		}
		return m.handleSidebarKey(msg)
	default:
		if next, cmd, ok := m.handleGlobalKey(msg); ok {
			return next, cmd
		}
		return m.handleComposerKey(msg)
	}
}

// handleGlobalKey handles bindings shared by the sidebar and composer.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.NewChat):
		m.notice = ""
		m.mgr.ClearCurrentConversation()
		m.setFocus(focusComposer)
		return m, nil, true

	case key.Matches(msg, m.keys.Attach):
		m.notice = ""
		m.setFocus(focusPathPrompt)
		return m, nil, true

	case key.Matches(msg, m.keys.PastePath):
		m.notice = "Reading clipboard..."
		return m, m.pasteCmd(), true

	case key.Matches(msg, m.keys.Delete):
		next, cmd := m.handleDelete()
		return next, cmd, true

	case key.Matches(msg, m.keys.ToggleFocus):
		if m.focus == focusSidebar {
			m.setFocus(focusComposer)
		} else {
			m.setFocus(focusSidebar)
		}
		return m, nil, true

	case key.Matches(msg, m.keys.CycleModel):
		m.mgr.SetModelPreference(nextModel(m.snap.ModelPreference))
		return m, nil, true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The retry banner takes r/x while the composer is empty.
	if m.snap.FailedMessage != nil && strings.TrimSpace(m.composer.Value()) == "" {
		switch {
		case key.Matches(msg, m.keys.Retry):
			if m.snap.RetryExhausted() {
				m.notice = "No retries left. Press x to dismiss."
				return m, nil
			}
			m.notice = ""
			return m, m.retryCmd()
		case key.Matches(msg, m.keys.Dismiss):
			m.notice = ""
			m.mgr.ClearFailedMessage()
			return m, nil
		}
	}

	if key.Matches(msg, m.keys.Send) {
		return m.submit()
	}

	if m.notice != "" && msg.Type == tea.KeyRunes {
		m.notice = ""
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// submit sends the composer text. The text is cleared only when the send
// is going to be attempted, so a refused send never loses what was typed.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.composer.Value()
	switch {
	case m.snap.IsSending:
		m.notice = "Wait for the current message to finish sending."
		return m, nil
	case m.snap.FailedMessage != nil:
		m.notice = "Retry (r) or dismiss (x) the failed message first."
		return m, nil
	case strings.TrimSpace(text) == "" && m.snap.ReadyFiles() == 0:
		if m.snap.UploadsInProgress() {
			m.notice = "Attachments are still uploading."
		}
		return m, nil
	}

	m.notice = ""
	m.composer.Reset()
	return m, m.sendCmd(text)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.snap.Conversations)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if n == 0 {
			return m, nil
		}
		id := m.snap.Conversations[m.cursor].ID
		m.setFocus(focusComposer)
		return m, m.selectCmd(id)
	case key.Matches(msg, m.keys.Cancel):
		m.setFocus(focusComposer)
	}
	m.refresh()
	return m, nil
}

func (m Model) handlePathPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.pathPrompt.Reset()
		m.setFocus(focusComposer)
		return m, nil
	case key.Matches(msg, m.keys.AcceptPath):
		path := expandHome(strings.TrimSpace(m.pathPrompt.Value()))
		m.pathPrompt.Reset()
		m.setFocus(focusComposer)
		if path == "" {
			return m, nil
		}
		m.notice = "Attaching " + filepath.Base(path)
		return m, m.attachCmd(path)
	}

	var cmd tea.Cmd
	m.pathPrompt, cmd = m.pathPrompt.Update(msg)
	return m, cmd
}

// handleDelete asks for confirmation on the first ctrl+d and deletes on
// the second. The sidebar deletes the highlighted row, the composer the
// open conversation.
func (m Model) handleDelete() (tea.Model, tea.Cmd) {
	var target *model.Conversation
	if m.focus == focusSidebar && m.cursor < len(m.snap.Conversations) {
		c := m.snap.Conversations[m.cursor]
		target = &c
	} else if m.snap.Current != nil {
		target = m.snap.Current
	}
	if target == nil {
		m.notice = "No conversation selected."
		return m, nil
	}

	if m.confirmDelete != target.ID {
		m.confirmDelete = target.ID
		m.notice = "Press ctrl+d again to delete \"" + target.DisplayTitle() + "\"."
		return m, nil
	}
	m.confirmDelete = ""
	m.notice = ""
	return m, m.deleteCmd(target.ID)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.composer.Blur()
	m.pathPrompt.Blur()
	switch f {
	case focusComposer:
		m.composer.Focus()
	case focusPathPrompt:
		m.pathPrompt.Focus()
	}
	m.refresh()
}

// nextModel cycles through the model catalog.
func nextModel(current string) string {
	models := model.SortedModels()
	for i, info := range models {
		if info.ID == current {
			return models[(i+1)%len(models)].ID
		}
	}
	return models[0].ID
}

// expandHome resolves a leading ~/ against the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
