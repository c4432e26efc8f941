// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat screen.
package chat

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// stateChangedMsg signals that the session manager state changed and the
// view should re-read its snapshot.
type stateChangedMsg struct{}

// Operation names carried by opDoneMsg.
const (
	opList   = "list"
	opSelect = "select"
	opSend   = "send"
	opRetry  = "retry"
	opDelete = "delete"
	opAttach = "attach"
	opPaste  = "paste"
)

// opDoneMsg reports the result of an asynchronous session operation.
// Most failures are already visible in the snapshot; the view only has to
// surface the ones that leave no trace there.
type opDoneMsg struct {
	op  string
	err error
}

// =============================================================================
// FILE MESSAGES
// =============================================================================

// FileDroppedMsg is sent into the program when a file lands in the drop
// folder.
type FileDroppedMsg struct {
	Path string
}
