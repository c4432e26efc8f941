// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The screen is a thin view over session.Manager. Operations run as
// Bubble Tea commands; the manager's change notifications trigger a fresh
// Snapshot, which is the only state the view renders from.
//
// # Layout
//
//	+----------------------------------------------+
//	| olympus  Title                  N messages   |
//	+------------+---------------------------------+
//	| Chats (n)  | You 10:42                       |
//	| * current  |   message bubble                |
//	|   other    | Assistant 10:42                 |
//	|            |   reply bubble                  |
//	+------------+---------------------------------+
//	| retry banner / error / notice                |
//	| pending files                                |
//	| composer                                     |
//	| status bar                                   |
//	+----------------------------------------------+
//
// # Keys
//
//	enter       send (composer) or open (sidebar)
//	alt+enter   newline
//	tab         toggle sidebar focus
//	ctrl+n      new conversation
//	ctrl+o      attach a file by path
//	ctrl+v      attach the file path on the clipboard
//	ctrl+d      delete conversation (press twice)
//	ctrl+t      cycle model preference
//	r / x       retry or dismiss a failed message
//	ctrl+c      quit
package chat
