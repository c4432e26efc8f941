// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/jeranaias/olympus-tui/internal/util"
)

// DefaultTitle is shown for conversations the backend has not titled yet.
const DefaultTitle = "New Chat"

// maxTitleRunes bounds titles derived from the first message.
const maxTitleRunes = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the sidebar entry for a chat thread.
type Conversation struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	ModelPreference    string    `json:"model_preference,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
}

// DisplayTitle returns the title or DefaultTitle when empty.
func (c Conversation) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return DefaultTitle
	}
	return c.Title
}

// ConversationWithMessages is a conversation together with its history.
type ConversationWithMessages struct {
	Conversation
	Messages []*Message `json:"messages"`
}

// TitleFromContent derives a conversation title from the first text part,
// falling back to the first attachment name.
func TitleFromContent(parts []ContentPart) string {
	for _, p := range parts {
		if p.Kind == KindText && strings.TrimSpace(p.Text) != "" {
			title := strings.Join(strings.Fields(p.Text), " ")
			return util.TruncateRunes(title, maxTitleRunes)
		}
	}
	for _, p := range parts {
		if p.Filename != "" {
			return util.TruncateRunes(p.Filename, maxTitleRunes)
		}
	}
	return DefaultTitle
}

// =============================================================================
// CONVERSATION LIST HELPERS
// =============================================================================

// IndexOfConversation returns the position of id in list, or -1.
func IndexOfConversation(list []Conversation, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// UpsertConversation replaces the entry with the same ID in place, or
// inserts conv at the head of the list when it is not present yet.
func UpsertConversation(list []Conversation, conv Conversation) []Conversation {
	if i := IndexOfConversation(list, conv.ID); i >= 0 {
		out := make([]Conversation, len(list))
		copy(out, list)
		out[i] = conv
		return out
	}
	out := make([]Conversation, 0, len(list)+1)
	out = append(out, conv)
	return append(out, list...)
}

// RemoveConversation returns list without the entry for id.
func RemoveConversation(list []Conversation, id string) []Conversation {
	out := make([]Conversation, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
