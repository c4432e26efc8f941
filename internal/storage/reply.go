// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// DemoModel is reported as the model when the sender expressed no preference.
const DemoModel = "demo"

// cannedReplies are cycled through by conversation length.
var cannedReplies = []string{
	"That's a great question! Let me think about this...\n\nBased on your query, here are my thoughts:\n\n1. **First consideration**: The context you've provided is helpful.\n2. **Second point**: There are multiple approaches we could take.\n3. **Recommendation**: I'd suggest starting with the simplest solution.\n\nWould you like me to elaborate on any of these points?",
	"I'd be happy to help with that!\n\nHere's what I understand from your request:\n- You're looking for a practical solution\n- The context is important for getting this right\n\nLet me provide a detailed response that addresses your specific needs. Feel free to ask follow-up questions!",
	"Excellent question! This is something I can definitely help with.\n\n**Quick Summary:**\n- The approach depends on your specific use case\n- There are tradeoffs to consider\n- I'll walk you through the options\n\nLet me know if you'd like more details on any particular aspect.",
}

// =============================================================================
// SEND
// =============================================================================

// SendMessage stores the user message and produces a canned assistant reply.
// An empty ConversationID starts a new conversation titled from the content.
// With streaming enabled the reply is published through the hub and the
// response carries no Reply.
func (s *Store) SendMessage(ctx context.Context, req backend.SendRequest) (backend.SendResponse, error) {
	if len(req.Content) == 0 {
		return backend.SendResponse{}, errors.New("message content is empty")
	}
	start := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backend.SendResponse{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	convID := req.ConversationID
	if convID == "" {
		convID = "conv-" + uuid.NewString()
		ts := start.UnixMilli()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (id, user_id, title, model_preference, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			convID, s.userID, model.TitleFromContent(req.Content), req.ModelPreference, ts, ts); err != nil {
			return backend.SendResponse{}, fmt.Errorf("create conversation: %w", err)
		}
	} else if _, err := s.getConversation(ctx, tx, convID); err != nil {
		return backend.SendResponse{}, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, convID).Scan(&count); err != nil {
		return backend.SendResponse{}, fmt.Errorf("count messages: %w", err)
	}

	user := &model.Message{
		ID:             "msg-" + uuid.NewString(),
		ConversationID: convID,
		Role:           model.RoleUser,
		Content:        model.CloneParts(req.Content),
		CreatedAt:      start.UTC(),
	}
	if err := insertMessage(ctx, tx, user); err != nil {
		return backend.SendResponse{}, err
	}

	text := composeReply(user, count/2)
	reply := &model.Message{
		ID:             "msg-" + uuid.NewString(),
		ConversationID: convID,
		Role:           model.RoleAssistant,
		Content:        []model.ContentPart{model.TextPart(text)},
		Meta: model.Meta{
			ModelUsed:    modelFor(req.ModelPreference),
			TokensInput:  estimateTokens(user.Text()) + 85*len(user.Attachments()),
			TokensOutput: estimateTokens(text),
			LatencyMs:    s.now().Sub(start).Milliseconds(),
		},
		CreatedAt: s.now().UTC(),
	}
	if err := insertMessage(ctx, tx, reply); err != nil {
		return backend.SendResponse{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`,
		reply.CreatedAt.UnixMilli(), convID); err != nil {
		return backend.SendResponse{}, fmt.Errorf("touch conversation: %w", err)
	}

	conv, err := s.getConversation(ctx, tx, convID)
	if err != nil {
		return backend.SendResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return backend.SendResponse{}, fmt.Errorf("commit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"conversation_id": convID,
		"parts":           len(user.Content),
		"stream":          s.stream,
	}).Debug("message stored")

	resp := backend.SendResponse{Message: *user, Conversation: conv}
	if !s.stream {
		resp.Reply = reply
		return resp, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.streamReply(reply, req.ClientMessageID)
	}()
	return resp, nil
}

// streamReply publishes reply word by word, then the finished message.
// Every event echoes clientID.
func (s *Store) streamReply(reply *model.Message, clientID string) {
	s.hub.Publish(backend.StreamEvent{
		Type:            backend.EventChatStart,
		ConversationID:  reply.ConversationID,
		MessageID:       reply.ID,
		ClientMessageID: clientID,
	})

	for _, chunk := range splitChunks(reply.Text()) {
		if s.streamDelay > 0 {
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.streamDelay):
			}
		}
		s.hub.Publish(backend.StreamEvent{
			Type:            backend.EventChatChunk,
			ConversationID:  reply.ConversationID,
			MessageID:       reply.ID,
			ClientMessageID: clientID,
			Content:         chunk,
		})
	}

	s.hub.Publish(backend.StreamEvent{
		Type:            backend.EventChatEnd,
		ConversationID:  reply.ConversationID,
		MessageID:       reply.ID,
		ClientMessageID: clientID,
		Message:         reply.Clone(),
	})
}

// =============================================================================
// REPLY HELPERS
// =============================================================================

func composeReply(user *model.Message, turn int) string {
	body := cannedReplies[turn%len(cannedReplies)]
	atts := user.Attachments()
	if len(atts) == 0 {
		return body
	}
	names := make([]string, 0, len(atts))
	for _, a := range atts {
		names = append(names, a.Label())
	}
	noun := "file"
	if len(atts) > 1 {
		noun = "files"
	}
	return fmt.Sprintf("I received %d %s: %s.\n\n%s", len(atts), noun, strings.Join(names, ", "), body)
}

func modelFor(preference string) string {
	if p := strings.TrimSpace(preference); p != "" && p != model.AutoModel {
		return p
	}
	return DemoModel
}

// estimateTokens approximates a tokenizer at four tokens per three words.
func estimateTokens(text string) int {
	return (len(strings.Fields(text))*4 + 2) / 3
}

// splitChunks splits text into word-sized pieces that concatenate back to
// the original, whitespace included.
func splitChunks(text string) []string {
	var chunks []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := r == ' ' || r == '\n' || r == '\t'
		if !space && inSpace && i > start {
			chunks = append(chunks, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}
