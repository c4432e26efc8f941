// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings for the chat screen.
package chat

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/olympus-tui/internal/ui/components"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Send        key.Binding
	Newline     key.Binding
	NewChat     key.Binding
	Attach      key.Binding
	PastePath   key.Binding
	Delete      key.Binding
	ToggleFocus key.Binding
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	AcceptPath  key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Retry       key.Binding
	Dismiss     key.Binding
	CycleModel  key.Binding
	Cancel      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "attach"),
		),
		PastePath: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste file"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete"),
		),
		ToggleFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "chats"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		AcceptPath: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "attach"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "model"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// shortcuts returns the status bar hints for the focused area.
func (k KeyMap) shortcuts(f focus) []components.Shortcut {
	var bindings []key.Binding
	switch f {
	case focusSidebar:
		bindings = []key.Binding{k.Open, k.Delete, k.NewChat, k.ToggleFocus, k.Quit}
	case focusPathPrompt:
		bindings = []key.Binding{k.AcceptPath, k.Cancel}
	default:
		bindings = []key.Binding{k.Send, k.Newline, k.Attach, k.NewChat, k.ToggleFocus, k.Quit}
	}
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}
