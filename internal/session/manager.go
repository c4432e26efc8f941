// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// DefaultMaxRetries bounds RetryLastMessage.
const DefaultMaxRetries = 3

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns all conversation state for one client: the sidebar list, the
// selected conversation and its messages, the composer's pending files, the
// streaming buffer and the failed-message record.
//
// Every mutation happens under mu, so readers never observe a half-applied
// change. Backend calls are made without holding mu. Subscribers are
// notified after mu is released.
type Manager struct {
	mu sync.Mutex

	backend         backend.Backend
	policy          *files.Policy
	log             logrus.FieldLogger
	maxRetries      int
	modelPreference string
	streamReplies   bool

	conversations []model.Conversation
	current       *model.Conversation
	messages      []*model.Message
	pendingFiles  []model.PendingFile

	loading     int // outstanding list/select fetches
	isSending   bool
	isStreaming bool
	streaming   strings.Builder
	// streamConvID binds a brand-new chat to the conversation its first
	// stream events name, before the send response assigns current.
	// sendTag is the client id of the send in flight.
	streamConvID string
	sendTag      string

	err        error
	failed     *model.FailedMessage
	retryCount int

	// generation changes whenever the selection changes. In-flight work
	// captures it and is discarded when it no longer matches.
	generation uint64
	// selectSeq orders selection fetches; only the latest may land.
	selectSeq uint64
	deleting  map[string]bool

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. nil discards.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = logging.OrDiscard(l) }
}

// WithPolicy sets the attachment allow-list and size limit.
func WithPolicy(p *files.Policy) Option {
	return func(m *Manager) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.maxRetries = n
		}
	}
}

// WithModelPreference sets the model requested on every send.
func WithModelPreference(id string) Option {
	return func(m *Manager) { m.modelPreference = id }
}

// WithStreamingReplies declares that assistant replies arrive over an event
// stream. Sends whose response carries no reply then stay in the streaming
// state until the stream's completion event.
func WithStreamingReplies(enabled bool) Option {
	return func(m *Manager) { m.streamReplies = enabled }
}

// NewManager creates a manager backed by b.
func NewManager(b backend.Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:    b,
		policy:     files.DefaultPolicy(),
		log:        logging.Discard(),
		maxRetries: DefaultMaxRetries,
		deleting:   make(map[string]bool),
		subs:       make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetModelPreference changes the model requested on subsequent sends.
func (m *Manager) SetModelPreference(id string) {
	m.mu.Lock()
	m.modelPreference = id
	m.mu.Unlock()
	m.notify()
}

// ModelPreference returns the model requested on sends.
func (m *Manager) ModelPreference() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelPreference
}

// Policy returns the attachment policy.
func (m *Manager) Policy() *files.Policy {
	return m.policy
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// Subscribe returns a channel that receives a value after every state
// change. Notifications coalesce: a slow reader sees one pending signal,
// not a backlog. Call cancel to unsubscribe.
func (m *Manager) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

// notify must be called without mu held.
func (m *Manager) notify() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// unlockAndNotify releases mu and then signals subscribers.
func (m *Manager) unlockAndNotify() {
	m.mu.Unlock()
	m.notify()
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a consistent, caller-owned copy of the session state.
type Snapshot struct {
	Conversations    []model.Conversation
	Current          *model.Conversation
	Messages         []*model.Message
	IsLoading        bool
	IsSending        bool
	IsStreaming      bool
	StreamingContent string
	PendingFiles     []model.PendingFile
	Error            error
	FailedMessage    *model.FailedMessage
	RetryCount       int
	MaxRetries       int
	ModelPreference  string
}

// Snapshot returns a copy of the current state taken under one lock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Conversations:    append([]model.Conversation(nil), m.conversations...),
		Messages:         make([]*model.Message, len(m.messages)),
		IsLoading:        m.loading > 0,
		IsSending:        m.isSending,
		IsStreaming:      m.isStreaming,
		StreamingContent: m.streaming.String(),
		PendingFiles:     append([]model.PendingFile(nil), m.pendingFiles...),
		Error:            m.err,
		FailedMessage:    m.failed.Clone(),
		RetryCount:       m.retryCount,
		MaxRetries:       m.maxRetries,
		ModelPreference:  m.modelPreference,
	}
	if m.current != nil {
		c := *m.current
		s.Current = &c
	}
	for i, msg := range m.messages {
		s.Messages[i] = msg.Clone()
	}
	return s
}

// CurrentID returns the selected conversation id, or "" for a new chat.
func (s Snapshot) CurrentID() string {
	if s.Current == nil {
		return ""
	}
	return s.Current.ID
}

// CanRetry reports whether RetryLastMessage would reach the network.
func (s Snapshot) CanRetry() bool {
	return s.FailedMessage != nil && !s.IsSending && s.RetryCount < s.MaxRetries
}

// RetryExhausted reports whether the failed message can no longer be retried.
func (s Snapshot) RetryExhausted() bool {
	return s.FailedMessage != nil && s.RetryCount >= s.MaxRetries
}

// ReadyFiles counts pending files that will be attached on send.
func (s Snapshot) ReadyFiles() int {
	n := 0
	for _, f := range s.PendingFiles {
		if f.Status == model.FileReady {
			n++
		}
	}
	return n
}

// UploadsInProgress reports whether any pending file is still uploading or
// being processed.
func (s Snapshot) UploadsInProgress() bool {
	for _, f := range s.PendingFiles {
		if !f.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR FIELD
// =============================================================================

// ClearError resets the displayed error.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.err = nil
	m.unlockAndNotify()
}

// =============================================================================
// INTERNAL HELPERS (mu held)
// =============================================================================

// resetSelectionLocked drops everything tied to the selected conversation
// and invalidates in-flight work.
func (m *Manager) resetSelectionLocked() {
	m.generation++
	m.selectSeq++
	m.current = nil
	m.messages = nil
	m.isSending = false
	m.resetStreamLocked()
	m.failed = nil
	m.retryCount = 0
}

func (m *Manager) resetStreamLocked() {
	m.isStreaming = false
	m.streaming.Reset()
	m.streamConvID = ""
}

func (m *Manager) indexOfMessageLocked(id string) int {
	for i, msg := range m.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) currentIDLocked() string {
	if m.current == nil {
		return ""
	}
	return m.current.ID
}
