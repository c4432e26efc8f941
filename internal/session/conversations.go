// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ListConversations replaces the sidebar list with the backend's, in server
// order. On failure the previous list is kept and the error is recorded.
func (m *Manager) ListConversations(ctx context.Context) error {
	m.mu.Lock()
	m.loading++
	m.unlockAndNotify()

	list, err := m.backend.ListConversations(ctx)

	m.mu.Lock()
	defer m.unlockAndNotify()
	m.loading--
	if err != nil {
		netErr := &NetworkError{Op: "list conversations", Err: err}
		m.err = netErr
		m.log.WithError(err).Warn("list conversations failed")
		return netErr
	}
	m.conversations = append([]model.Conversation(nil), list...)
	m.log.WithField("count", len(list)).Debug("conversations loaded")
	return nil
}

// SelectConversation fetches id with its history and makes it current.
// Re-selecting the current conversation fetches again. Nothing changes
// until the fetch succeeds: a failed fetch leaves the previous selection,
// its in-flight send and its live stream untouched. When selections
// overlap only the latest one lands.
func (m *Manager) SelectConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	m.selectSeq++
	seq := m.selectSeq
	m.loading++
	m.unlockAndNotify()

	log := m.log.WithField("conversation_id", id)
	conv, err := m.backend.GetConversation(ctx, id)

	m.mu.Lock()
	defer m.unlockAndNotify()
	m.loading--
	if seq != m.selectSeq {
		log.Debug("selection superseded, discarding fetch")
		return nil
	}
	if err != nil {
		netErr := &NetworkError{Op: "load conversation", Err: err}
		m.err = netErr
		log.WithError(err).Warn("select conversation failed")
		return netErr
	}

	// The previous selection's send and stream are stale from here on.
	m.generation++
	m.isSending = false
	m.resetStreamLocked()

	c := conv.Conversation
	m.current = &c
	m.messages = make([]*model.Message, len(conv.Messages))
	for i, msg := range conv.Messages {
		m.messages[i] = msg.Clone()
	}
	if m.failed != nil {
		// The failed message belonged to the previous conversation.
		m.failed = nil
		m.retryCount = 0
	}
	m.conversations = model.UpsertConversation(m.conversations, c)
	log.WithField("messages", len(m.messages)).Debug("conversation selected")
	return nil
}

// CreateConversation creates a conversation, puts it at the head of the
// list and selects it with no messages.
func (m *Manager) CreateConversation(ctx context.Context, titleHint string) (model.Conversation, error) {
	conv, err := m.backend.CreateConversation(ctx, titleHint)

	m.mu.Lock()
	defer m.unlockAndNotify()
	if err != nil {
		netErr := &NetworkError{Op: "create conversation", Err: err}
		m.err = netErr
		m.log.WithError(err).Warn("create conversation failed")
		return model.Conversation{}, netErr
	}

	m.resetSelectionLocked()
	c := conv
	m.current = &c
	m.messages = []*model.Message{}
	m.conversations = model.UpsertConversation(model.RemoveConversation(m.conversations, conv.ID), conv)
	m.log.WithField("conversation_id", conv.ID).Info("conversation created")
	return conv, nil
}

// DeleteConversation removes id from the list, clearing the selection if it
// was current. A delete of an id already being deleted is a no-op, and a
// backend "not found" counts as success.
func (m *Manager) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.deleting[id] {
		m.mu.Unlock()
		return nil
	}
	m.deleting[id] = true
	m.mu.Unlock()

	log := m.log.WithField("conversation_id", id)
	err := m.backend.DeleteConversation(ctx, id)

	m.mu.Lock()
	defer m.unlockAndNotify()
	delete(m.deleting, id)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		netErr := &NetworkError{Op: "delete conversation", Err: err}
		m.err = netErr
		log.WithError(err).Warn("delete conversation failed")
		return netErr
	}

	m.conversations = model.RemoveConversation(m.conversations, id)
	if m.currentIDLocked() == id {
		m.resetSelectionLocked()
	}
	log.WithFields(logrus.Fields{"already_gone": err != nil}).Info("conversation deleted")
	return nil
}

// ClearCurrentConversation returns to the "new chat" state: no selection,
// no messages, no pending files, no streaming, no failed message.
func (m *Manager) ClearCurrentConversation() {
	m.mu.Lock()
	m.resetSelectionLocked()
	m.pendingFiles = nil
	m.unlockAndNotify()
}
