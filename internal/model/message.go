// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/olympus-tui/internal/util"
)

// TempIDPrefix marks identifiers generated locally before the server
// assigns a canonical one.
const TempIDPrefix = "temp-"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Meta holds the optional generation metadata the backend attaches to
// assistant messages. The client only displays it.
type Meta struct {
	ModelUsed    string  `json:"model_used,omitempty"`
	PromptUsed   string  `json:"prompt_used,omitempty"`
	TokensInput  int     `json:"tokens_input,omitempty"`
	TokensOutput int     `json:"tokens_output,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
	LatencyMs    int64   `json:"latency_ms,omitempty"`
}

// IsZero reports whether no metadata was supplied.
func (m Meta) IsZero() bool {
	return m == Meta{}
}

// Message represents a single message in a conversation.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Role           Role          `json:"role"`
	Content        []ContentPart `json:"content"`
	Meta
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage creates a user message with a temporary local ID.
func NewUserMessage(conversationID string, content []ContentPart) *Message {
	return &Message{
		ID:             NewTempID(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        CloneParts(content),
		CreatedAt:      time.Now(),
	}
}

// NewTempID returns a fresh local identifier.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was generated locally.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Content = CloneParts(m.Content)
	return &c
}

// Text returns the concatenated text parts, separated by newlines.
func (m *Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if p.Kind != KindText || p.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Attachments returns the media parts of the message in order.
func (m *Message) Attachments() []ContentPart {
	var out []ContentPart
	for _, p := range m.Content {
		if p.Kind.IsMedia() {
			out = append(out, p)
		}
	}
	return out
}

// Preview returns a single-line preview that fits in width columns.
func (m *Message) Preview(width int) string {
	text := m.Text()
	if text == "" && len(m.Content) > 0 {
		text = m.Content[0].Label()
	}
	text = strings.Join(strings.Fields(text), " ")
	return util.TruncateWidth(text, width)
}

// IsEmpty returns true if the message has no content parts worth showing.
func (m *Message) IsEmpty() bool {
	for _, p := range m.Content {
		if !p.IsBlank() {
			return false
		}
	}
	return true
}

// FormatStats returns the metadata line shown under assistant messages.
// Format: "gpt-4o | 45 in / 230 out | 1.25s | $0.0031"
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.Meta.IsZero() {
		return ""
	}

	var parts []string
	if m.ModelUsed != "" {
		parts = append(parts, m.ModelUsed)
	}
	if m.TokensInput > 0 || m.TokensOutput > 0 {
		parts = append(parts, fmt.Sprintf("%d in / %d out", m.TokensInput, m.TokensOutput))
	}
	if m.LatencyMs > 0 {
		parts = append(parts, formatLatency(m.LatencyMs))
	}
	if m.Cost > 0 {
		parts = append(parts, fmt.Sprintf("$%.4f", m.Cost))
	}
	return strings.Join(parts, " | ")
}

// formatLatency renders milliseconds as "850ms" or "1.25s".
func formatLatency(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}
