// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file wraps session operations as Bubble Tea commands. Each command
// runs off the UI goroutine and reports back with an opDoneMsg; state
// changes arrive separately through the manager's notifications.
package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// waitForChange blocks until the manager signals a change.
func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func (m Model) listCmd() tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opList, err: mgr.ListConversations(ctx)}
	}
}

func (m Model) selectCmd(id string) tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opSelect, err: mgr.SelectConversation(ctx, id)}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		var parts []model.ContentPart
		if text != "" {
			parts = append(parts, model.TextPart(text))
		}
		return opDoneMsg{op: opSend, err: mgr.SendMessage(ctx, parts)}
	}
}

func (m Model) retryCmd() tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opRetry, err: mgr.RetryLastMessage(ctx)}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opDelete, err: mgr.DeleteConversation(ctx, id)}
	}
}

func (m Model) attachCmd(path string) tea.Cmd {
	attacher, ctx := m.attacher, m.ctx
	return func() tea.Msg {
		if attacher == nil {
			return opDoneMsg{op: opAttach, err: errNoUploads}
		}
		return opDoneMsg{op: opAttach, err: attacher.Attach(ctx, path)}
	}
}

// pasteCmd reads a file path from the clipboard and attaches it.
func (m Model) pasteCmd() tea.Cmd {
	attacher, ctx := m.attacher, m.ctx
	return func() tea.Msg {
		if attacher == nil {
			return opDoneMsg{op: opPaste, err: errNoUploads}
		}
		path, err := files.PastePath()
		if err != nil {
			return opDoneMsg{op: opPaste, err: err}
		}
		if err := attacher.Attach(ctx, path); err != nil {
			return opDoneMsg{op: opPaste, err: fmt.Errorf("attach %s: %w", path, err)}
		}
		return opDoneMsg{op: opPaste}
	}
}
