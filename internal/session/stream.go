// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// =============================================================================
// STREAMING
// =============================================================================

// acceptsLocked reports whether stream events tagged convID belong to the
// current selection. A brand-new chat with a send in flight adopts the
// conversation that streams to it: the one echoing its client id, or, when
// the server sends none, the first one not already in the sidebar.
func (m *Manager) acceptsLocked(convID, clientID string) bool {
	if convID == "" {
		return false
	}
	if m.current != nil {
		return m.current.ID == convID
	}
	if m.streamConvID != "" {
		return m.streamConvID == convID
	}
	if !m.isSending {
		return false
	}
	if clientID != "" {
		if clientID != m.sendTag {
			return false
		}
	} else if model.IndexOfConversation(m.conversations, convID) >= 0 {
		return false
	}
	m.streamConvID = convID
	return true
}

// BeginStream starts (or restarts) live output for convID. Returns false
// when the event was discarded.
func (m *Manager) BeginStream(convID string) bool {
	return m.beginStream(convID, "")
}

func (m *Manager) beginStream(convID, clientID string) bool {
	m.mu.Lock()
	if !m.acceptsLocked(convID, clientID) {
		m.mu.Unlock()
		return false
	}
	m.isStreaming = true
	m.streaming.Reset()
	m.unlockAndNotify()
	return true
}

// AddStreamChunk appends chunk to the streaming buffer. Chunks are applied
// in call order and only while streaming for the current selection.
func (m *Manager) AddStreamChunk(convID, chunk string) bool {
	return m.addStreamChunk(convID, "", chunk)
}

func (m *Manager) addStreamChunk(convID, clientID, chunk string) bool {
	m.mu.Lock()
	if !m.isStreaming || !m.acceptsLocked(convID, clientID) {
		m.mu.Unlock()
		return false
	}
	m.streaming.WriteString(chunk)
	m.unlockAndNotify()
	return true
}

// CompleteStream appends the finalized message and clears the buffer and
// streaming flag in one step, so no snapshot shows both or neither.
// A message already present (same id) is replaced in place.
func (m *Manager) CompleteStream(msg *model.Message) bool {
	return m.completeStream(msg, "")
}

func (m *Manager) completeStream(msg *model.Message, clientID string) bool {
	if msg == nil {
		return false
	}
	m.mu.Lock()
	if !m.acceptsLocked(msg.ConversationID, clientID) {
		m.mu.Unlock()
		return false
	}
	final := msg.Clone()
	if i := m.indexOfMessageLocked(final.ID); i >= 0 {
		m.messages[i] = final
	} else {
		m.messages = append(m.messages, final)
	}
	m.isStreaming = false
	m.streaming.Reset()

	if i := model.IndexOfConversation(m.conversations, final.ConversationID); i >= 0 {
		conv := m.conversations[i]
		conv.LastMessagePreview = final.Preview(80)
		if !final.CreatedAt.IsZero() {
			conv.UpdatedAt = final.CreatedAt
		}
		m.conversations = model.UpsertConversation(m.conversations, conv)
	}
	m.unlockAndNotify()
	return true
}

// AbortStream discards live output for convID and records errMsg.
func (m *Manager) AbortStream(convID string, errMsg string) bool {
	return m.abortStream(convID, "", errMsg)
}

func (m *Manager) abortStream(convID, clientID, errMsg string) bool {
	m.mu.Lock()
	if !m.acceptsLocked(convID, clientID) {
		m.mu.Unlock()
		return false
	}
	m.resetStreamLocked()
	if errMsg != "" {
		m.err = &NetworkError{Op: "stream", Err: errors.New(errMsg)}
	}
	m.unlockAndNotify()
	return true
}

// HandleStreamEvent dispatches one server-push event. It reports whether
// the event changed state.
func (m *Manager) HandleStreamEvent(ev backend.StreamEvent) bool {
	switch ev.Type {
	case backend.EventChatStart:
		return m.beginStream(ev.ConversationID, ev.ClientMessageID)

	case backend.EventChatChunk:
		return m.addStreamChunk(ev.ConversationID, ev.ClientMessageID, ev.Content)

	case backend.EventChatEnd:
		if ev.Message == nil {
			return m.abortStream(ev.ConversationID, ev.ClientMessageID, "")
		}
		msg := ev.Message
		if msg.ConversationID == "" {
			msg = msg.Clone()
			msg.ConversationID = ev.ConversationID
		}
		return m.completeStream(msg, ev.ClientMessageID)

	case backend.EventError:
		if ev.ConversationID != "" {
			return m.abortStream(ev.ConversationID, ev.ClientMessageID, ev.Error)
		}
		// Connection-level error: not tied to a conversation.
		m.mu.Lock()
		m.resetStreamLocked()
		m.err = &NetworkError{Op: "stream", Err: errors.New(ev.Error)}
		m.unlockAndNotify()
		return true

	case backend.EventProcessingStatus:
		return m.UpdatePendingFile(ev.FileID, processingUpdate(ev))

	case backend.EventTranscriptionProgress:
		u := model.ProgressUpdate(ev.Progress)
		if ev.Content != "" {
			text := ev.Content
			u.Transcription = &text
		}
		return m.UpdatePendingFile(ev.FileID, u)

	default:
		m.log.WithField("type", ev.Type).Debug("ignoring unknown stream event")
		return false
	}
}

// processingUpdate maps a processing_status event: Content carries the
// status name, Error a failure message.
func processingUpdate(ev backend.StreamEvent) model.PendingFileUpdate {
	if ev.Error != "" {
		return model.ErrorUpdate(ev.Error)
	}
	status := model.FileStatus(ev.Content)
	switch status {
	case model.FileUploading, model.FileProcessing, model.FileReady, model.FileError:
	default:
		status = model.FileProcessing
	}
	u := model.StatusUpdate(status)
	if ev.Progress > 0 || status == model.FileReady {
		p := ev.Progress
		if status == model.FileReady {
			p = 100
		}
		u.Progress = &p
	}
	return u
}

// Consume feeds events from src into the manager until the source closes
// or ctx is done.
func (m *Manager) Consume(ctx context.Context, src backend.StreamSource) {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.HandleStreamEvent(ev)
		}
	}
}
