// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/olympus-tui/internal/model"
)

// DemoUserID owns the seeded conversations.
const DemoUserID = "user-1"

const fence = "```"

type seedConversation struct {
	id, title        string
	created, updated string
	messages         []seedMessage
}

type seedMessage struct {
	id      string
	role    model.Role
	content []model.ContentPart
	meta    model.Meta
	at      string
}

var demoConversations = []seedConversation{
	{
		id: "conv-1", title: "Help me write Python code",
		created: "2024-01-15T10:30:00Z", updated: "2024-01-15T11:45:00Z",
		messages: []seedMessage{
			{
				id: "msg-1", role: model.RoleUser, at: "2024-01-15T10:30:00Z",
				content: []model.ContentPart{model.TextPart("Can you help me write a Python function to sort a list of dictionaries by a specific key?")},
			},
			{
				id: "msg-2", role: model.RoleAssistant, at: "2024-01-15T10:30:30Z",
				meta:    model.Meta{ModelUsed: "gpt-4o", TokensInput: 45, TokensOutput: 230, LatencyMs: 1250},
				content: []model.ContentPart{model.TextPart("Of course! Here's a Python function that sorts a list of dictionaries by a specific key:\n\n" +
					fence + "python\n" +
					"def sort_by_key(data: list[dict], key: str, reverse: bool = False) -> list[dict]:\n" +
					"    \"\"\"Sort a list of dictionaries by a specific key.\"\"\"\n" +
					"    return sorted(data, key=lambda x: x.get(key, ''), reverse=reverse)\n\n" +
					"users = [\n    {\"name\": \"Alice\", \"age\": 30},\n    {\"name\": \"Bob\", \"age\": 25},\n    {\"name\": \"Charlie\", \"age\": 35}\n]\n\n" +
					"print(sort_by_key(users, \"age\"))\n" +
					fence + "\n\n" +
					"This function uses Python's built-in `sorted()` with a lambda function as the key. Would you like me to add any additional features?")},
			},
			{
				id: "msg-3", role: model.RoleUser, at: "2024-01-15T11:00:00Z",
				content: []model.ContentPart{model.TextPart("Can you make it handle nested keys, like sorting by user.profile.age?")},
			},
			{
				id: "msg-4", role: model.RoleAssistant, at: "2024-01-15T11:00:45Z",
				meta:    model.Meta{ModelUsed: "claude-3-5-sonnet", TokensInput: 280, TokensOutput: 320, LatencyMs: 1800},
				content: []model.ContentPart{model.TextPart("Great idea! Here's an enhanced version that supports nested keys using dot notation:\n\n" +
					fence + "python\n" +
					"from functools import reduce\n\n" +
					"def get_nested_value(data: dict, keys: str, default=None):\n" +
					"    try:\n" +
					"        return reduce(lambda d, key: d[key], keys.split('.'), data)\n" +
					"    except (KeyError, TypeError):\n" +
					"        return default\n\n" +
					"def sort_by_key(data: list[dict], key: str, reverse: bool = False) -> list[dict]:\n" +
					"    return sorted(data, key=lambda x: get_nested_value(x, key, ''), reverse=reverse)\n\n" +
					"sorted_users = sort_by_key(users, \"profile.age\")\n" +
					fence + "\n\n" +
					"Now you can sort by any nested key using dot notation!")},
			},
		},
	},
	{
		id: "conv-2", title: "Image analysis request",
		created: "2024-01-14T08:00:00Z", updated: "2024-01-14T08:30:00Z",
		messages: []seedMessage{
			{
				id: "msg-5", role: model.RoleUser, at: "2024-01-14T08:00:00Z",
				content: []model.ContentPart{
					model.TextPart("What can you tell me about this image?"),
					model.ImagePart("https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800", "mountain.jpg", "image/jpeg"),
				},
			},
			{
				id: "msg-6", role: model.RoleAssistant, at: "2024-01-14T08:00:45Z",
				meta:    model.Meta{ModelUsed: "gpt-4o-vision", TokensInput: 1200, TokensOutput: 180, LatencyMs: 2100},
				content: []model.ContentPart{model.TextPart("This is a stunning photograph of a mountain landscape! Here's what I can see:\n\n" +
					"**Scene Description:**\n" +
					"- A majestic snow-capped mountain peak rising above clouds\n" +
					"- The mountain appears to be part of an alpine range\n" +
					"- Golden hour lighting casting warm tones on the peaks\n\n" +
					"**Photography Notes:**\n" +
					"- Excellent composition with the peak as the focal point\n" +
					"- High dynamic range capturing both shadows and highlights\n\n" +
					"Would you like me to analyze any specific aspect in more detail?")},
			},
		},
	},
	{
		id: "conv-3", title: "Explain quantum computing",
		created: "2024-01-12T15:00:00Z", updated: "2024-01-12T15:45:00Z",
		messages: []seedMessage{
			{
				id: "msg-7", role: model.RoleUser, at: "2024-01-12T15:00:00Z",
				content: []model.ContentPart{model.TextPart("Can you explain quantum computing in simple terms?")},
			},
			{
				id: "msg-8", role: model.RoleAssistant, at: "2024-01-12T15:01:00Z",
				meta:    model.Meta{ModelUsed: "claude-3-5-sonnet", TokensInput: 25, TokensOutput: 280, LatencyMs: 1650},
				content: []model.ContentPart{model.TextPart("# Quantum Computing Explained Simply\n\n" +
					"## Classical Computers\n" +
					"- Work with **bits** that are either 0 OR 1\n" +
					"- Like a light switch: on or off\n\n" +
					"## Quantum Computers\n" +
					"- Work with **qubits** that can be 0 AND 1 simultaneously\n" +
					"- Like a coin spinning in the air\n\n" +
					"| Task | Classical | Quantum |\n" +
					"|------|-----------|---------|\n" +
					"| Breaking encryption | Millions of years | Hours |\n" +
					"| Drug discovery | Decades | Months |\n\n" +
					"## The Catch\n" +
					"- Qubits are fragile and need extreme cold\n" +
					"- Prone to errors\n\n" +
					"Want me to dive deeper into any aspect?")},
			},
		},
	},
	{
		id: "conv-4", title: "Recipe suggestions",
		created: "2024-01-10T19:00:00Z", updated: "2024-01-10T19:20:00Z",
	},
}

// seed inserts the demo conversations when the database has none.
func (s *Store) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range demoConversations {
		created, updated := mustTime(c.created), mustTime(c.updated)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (id, user_id, title, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`, c.id, s.userID, c.title, created.UnixMilli(), updated.UnixMilli()); err != nil {
			return fmt.Errorf("seed %s: %w", c.id, err)
		}
		for _, m := range c.messages {
			msg := &model.Message{
				ID:             m.id,
				ConversationID: c.id,
				Role:           m.role,
				Content:        m.content,
				Meta:           m.meta,
				CreatedAt:      mustTime(m.at),
			}
			if err := insertMessage(ctx, tx, msg); err != nil {
				return fmt.Errorf("seed %s: %w", m.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.WithField("conversations", len(demoConversations)).Info("seeded demo data")
	return nil
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
