// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation session manager: the single
// owner of the conversation list, the selected conversation, its messages,
// the composer's pending files, the live streaming buffer and the
// failed-message retry record.
//
// # Key Types
//
//   - Manager: mutex-guarded state machine; construct one per client
//   - Snapshot: consistent read-only copy for presentation code
//   - ValidationError, NetworkError, RetryExhaustedError: error taxonomy
//
// # Sending
//
// SendMessage appends the user message optimistically, calls the backend,
// then either reconciles the message with its server id or removes it and
// records a FailedMessage. RetryLastMessage resends that record at most
// three times. Only one send is in flight at a time; a second is refused.
//
// # Staleness
//
// Clearing, creating or deleting the current conversation bumps an
// internal generation, as does a selection once its fetch succeeds. Sends, fetches and stream events started under an
// older generation (or tagged with another conversation) do not touch the
// displayed state.
//
// # Usage
//
//	mgr := session.NewManager(client, session.WithLogger(log))
//	updates, cancel := mgr.Subscribe()
//	defer cancel()
//	go mgr.Consume(ctx, stream)
//
//	if err := mgr.SendMessage(ctx, []model.ContentPart{model.TextPart("hi")}); err != nil {
//	    var verr *session.ValidationError
//	    if errors.As(err, &verr) {
//	        // refused locally, nothing changed
//	    }
//	}
package session
