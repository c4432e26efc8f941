// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// =============================================================================
// SEND
// =============================================================================

// SendMessage sends parts, preceded by every ready pending file, to the
// current conversation (or starts a new one when none is selected).
//
// The user message is appended optimistically before the backend is called,
// so it is visible to Snapshot as soon as SendMessage has started. On
// success it is reconciled in place with the server id; on failure it is
// removed and recorded as the failed message.
//
// Refusals (*ValidationError wrapping ErrSendInFlight, ErrFailedPending or
// ErrEmptyMessage) change no state.
func (m *Manager) SendMessage(ctx context.Context, parts []model.ContentPart) error {
	m.mu.Lock()
	if m.isSending {
		m.mu.Unlock()
		return invalid("send", ErrSendInFlight)
	}
	if m.failed != nil {
		m.mu.Unlock()
		return invalid("send", ErrFailedPending)
	}
	content := m.composeLocked(parts)
	if len(content) == 0 {
		m.mu.Unlock()
		return invalid("send", ErrEmptyMessage)
	}
	// Attachments are spent once sent, including any still uploading.
	m.pendingFiles = nil
	return m.sendLocked(ctx, content, false)
}

// RetryLastMessage resends the failed message verbatim. At most MaxRetries
// retries are attempted; after that it returns *RetryExhaustedError without
// calling the backend. The counter resets only on a successful send or
// ClearFailedMessage.
func (m *Manager) RetryLastMessage(ctx context.Context) error {
	m.mu.Lock()
	if m.failed == nil {
		m.mu.Unlock()
		return invalid("retry", ErrNothingToRetry)
	}
	if m.isSending {
		m.mu.Unlock()
		return invalid("retry", ErrSendInFlight)
	}
	if m.retryCount >= m.maxRetries {
		exhausted := &RetryExhaustedError{Attempts: m.retryCount}
		m.err = exhausted
		m.log.WithField("attempts", m.retryCount).Warn("retry budget exhausted")
		m.unlockAndNotify()
		return exhausted
	}
	m.retryCount++
	m.log.WithField("attempt", m.retryCount).Info("retrying failed message")
	return m.sendLocked(ctx, model.CloneParts(m.failed.Content), true)
}

// ClearFailedMessage dismisses the failed message and resets the retry
// counter without retrying.
func (m *Manager) ClearFailedMessage() {
	m.mu.Lock()
	m.failed = nil
	m.retryCount = 0
	if _, ok := m.err.(*RetryExhaustedError); ok {
		m.err = nil
	}
	m.unlockAndNotify()
}

// composeLocked merges ready pending files (in pending order) ahead of the
// caller's parts (in their order), dropping blank text.
func (m *Manager) composeLocked(parts []model.ContentPart) []model.ContentPart {
	var content []model.ContentPart
	for _, f := range m.pendingFiles {
		if f.Status == model.FileReady {
			content = append(content, f.ToContentPart())
		}
	}
	for _, p := range parts {
		if p.Kind == model.KindText {
			p.Text = util.NormalizeText(p.Text)
		}
		if p.IsBlank() {
			continue
		}
		content = append(content, p)
	}
	return content
}

// sendLocked is entered with mu held and returns with it released.
func (m *Manager) sendLocked(ctx context.Context, content []model.ContentPart, retry bool) error {
	gen := m.generation
	convID := m.currentIDLocked()

	optimistic := model.NewUserMessage(convID, content)
	m.messages = append(m.messages, optimistic)
	m.isSending = true
	m.isStreaming = true
	m.streaming.Reset()
	m.streamConvID = ""
	m.sendTag = optimistic.ID
	m.failed = nil
	m.err = nil

	req := backend.SendRequest{
		ConversationID:  convID,
		ClientMessageID: optimistic.ID,
		Content:         model.CloneParts(content),
		ModelPreference: m.modelPreference,
	}
	log := m.log.WithFields(logrus.Fields{
		"conversation_id": convID,
		"temp_id":         optimistic.ID,
		"parts":           len(content),
		"retry":           retry,
	})
	m.unlockAndNotify()

	log.Debug("sending message")
	start := time.Now()
	resp, err := m.backend.SendMessage(ctx, req)
	log = log.WithField("elapsed", time.Since(start).Round(time.Millisecond))

	m.mu.Lock()
	defer m.unlockAndNotify()

	if gen != m.generation {
		// The user moved on. Only the sidebar learns about the result.
		if err != nil {
			log.WithError(err).Info("stale send failed, discarding")
			return &NetworkError{Op: "send", Err: err}
		}
		if resp.Conversation.ID != "" {
			m.conversations = model.UpsertConversation(m.conversations, resp.Conversation)
		}
		log.Info("stale send succeeded, sidebar updated")
		return nil
	}

	if err != nil {
		if i := m.indexOfMessageLocked(optimistic.ID); i >= 0 {
			m.messages = append(m.messages[:i:i], m.messages[i+1:]...)
		}
		m.isSending = false
		m.resetStreamLocked()
		m.failed = &model.FailedMessage{Content: content, FailedAt: time.Now()}
		netErr := &NetworkError{Op: "send", Err: err}
		m.err = netErr
		log.WithError(err).Warn("send failed")
		return netErr
	}

	m.reconcileLocked(optimistic.ID, resp)
	m.isSending = false
	m.retryCount = 0
	log.WithField("message_id", resp.Message.ID).Info("message sent")
	return nil
}

// reconcileLocked applies a successful send response.
func (m *Manager) reconcileLocked(tempID string, resp backend.SendResponse) {
	conv := resp.Conversation
	if conv.ID == "" && m.current != nil {
		conv = *m.current
	}

	if i := m.indexOfMessageLocked(tempID); i >= 0 {
		// Replace the slot, not the position: no reordering, no flicker.
		msg := m.messages[i].Clone()
		if resp.Message.ID != "" {
			msg.ID = resp.Message.ID
		}
		if conv.ID != "" {
			msg.ConversationID = conv.ID
		}
		if !resp.Message.CreatedAt.IsZero() {
			msg.CreatedAt = resp.Message.CreatedAt
		}
		m.messages[i] = msg
	}

	if resp.Reply != nil {
		if m.indexOfMessageLocked(resp.Reply.ID) < 0 {
			m.messages = append(m.messages, resp.Reply.Clone())
		}
		m.resetStreamLocked()
	} else if !m.streamReplies {
		m.resetStreamLocked()
	}

	if conv.ID != "" {
		c := conv
		m.current = &c
		m.conversations = model.UpsertConversation(m.conversations, conv)
		m.dropForeignLocked(conv.ID)
		if m.streamConvID != "" && m.streamConvID != conv.ID {
			// The buffer was bound to another conversation's events.
			m.streaming.Reset()
		}
		m.streamConvID = ""
	}
}

// dropForeignLocked removes messages that belong to a conversation other
// than convID. Messages not yet assigned one are kept.
func (m *Manager) dropForeignLocked(convID string) {
	kept := make([]*model.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.ConversationID == "" || msg.ConversationID == convID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
}
