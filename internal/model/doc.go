// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the domain types shared by the session manager, the
// backend implementations and the presentation layer.
//
// # Key Types
//
//   - Conversation: Sidebar entry for a chat thread (title, counts, preview)
//   - Message: Single message with role and an ordered list of content parts
//   - ContentPart: Tagged union over text, image, audio, video and file
//   - PendingFile: Client-only upload attached to the next outgoing message
//   - FailedMessage: Snapshot of the last send attempt that failed
//
// # Usage
//
// Build a multimodal user message:
//
//	msg := model.NewUserMessage("", []model.ContentPart{
//	    model.ImagePart("https://cdn/x.jpg", "x.jpg", "image/jpeg"),
//	    model.TextPart("describe this"),
//	})
package model
