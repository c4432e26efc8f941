// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
)

func reply(id, convID, body string) *model.Message {
	return &model.Message{ID: id, ConversationID: convID, Role: model.RoleAssistant, Content: text(body), CreatedAt: time.Now()}
}

// =============================================================================
// ACCUMULATION
// =============================================================================

func TestStream_ChunksAccumulateInOrder(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	require.True(t, mgr.BeginStream("conv-a"))
	for _, c := range []string{"The ", "quick ", "brown ", "fox"} {
		require.True(t, mgr.AddStreamChunk("conv-a", c))
	}
	s := mgr.Snapshot()
	assert.True(t, s.IsStreaming)
	assert.Equal(t, "The quick brown fox", s.StreamingContent)
}

func TestStream_ChunkIgnoredWhenNotStreaming(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	assert.False(t, mgr.AddStreamChunk("conv-a", "stray"))
	assert.Empty(t, mgr.Snapshot().StreamingContent)
}

func TestStream_OtherConversationDiscarded(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	assert.False(t, mgr.BeginStream("conv-b"))
	require.True(t, mgr.BeginStream("conv-a"))
	assert.False(t, mgr.AddStreamChunk("conv-b", "wrong"))
	assert.False(t, mgr.AddStreamChunk("", "untagged"))
	assert.Empty(t, mgr.Snapshot().StreamingContent)
}

// =============================================================================
// COMPLETION ATOMICITY
// =============================================================================

func TestStream_CompleteIsAtomic(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	require.True(t, mgr.BeginStream("conv-a"))
	require.True(t, mgr.AddStreamChunk("conv-a", "Hello"))

	final := reply("reply-1", "conv-a", "Hello")

	var stop atomic.Bool
	var violations atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			s := mgr.Snapshot()
			hasBuffer := s.StreamingContent != ""
			hasFinal := false
			for _, m := range s.Messages {
				if m.ID == final.ID {
					hasFinal = true
				}
			}
			if hasBuffer == hasFinal {
				violations.Add(1)
			}
		}
	}()

	time.Sleep(5 * time.Millisecond)
	require.True(t, mgr.CompleteStream(final))
	time.Sleep(5 * time.Millisecond)
	stop.Store(true)
	wg.Wait()

	assert.Zero(t, violations.Load(), "buffer and final message must never be visible together or both absent")

	s := mgr.Snapshot()
	assert.False(t, s.IsStreaming)
	assert.Empty(t, s.StreamingContent)
	assert.Equal(t, final, s.Messages[len(s.Messages)-1])
	assert.Equal(t, "Hello", s.Conversations[0].LastMessagePreview)
}

func TestStream_CompleteDeduplicatesByID(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	require.True(t, mgr.CompleteStream(reply("r", "conv-a", "draft")))
	require.True(t, mgr.CompleteStream(reply("r", "conv-a", "final")))

	s := mgr.Snapshot()
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "final", s.Messages[1].Text())
}

func TestStream_AbortClearsBufferAndRecordsError(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	require.True(t, mgr.BeginStream("conv-a"))
	require.True(t, mgr.AddStreamChunk("conv-a", "partial"))
	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventError, ConversationID: "conv-a", Error: "model overloaded"}))

	s := mgr.Snapshot()
	assert.False(t, s.IsStreaming)
	assert.Empty(t, s.StreamingContent)
	require.Error(t, s.Error)
	assert.Contains(t, s.Error.Error(), "model overloaded")
}

func TestStream_ConnectionErrorNotTiedToConversation(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)
	require.True(t, mgr.BeginStream("conv-a"))

	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventError, Error: "Connection lost. Please refresh the page."}))
	s := mgr.Snapshot()
	assert.False(t, s.IsStreaming)
	assert.Contains(t, s.Error.Error(), "Connection lost")
}

// =============================================================================
// STREAMED REPLIES
// =============================================================================

func TestStream_ReplyDeliveredOverStream(t *testing.T) {
	fb := newFakeBackend()
	fb.set(func(f *fakeBackend) { f.noReply = true })
	mgr := NewManager(fb, WithStreamingReplies(true))
	selectA(t, mgr)

	require.NoError(t, mgr.SendMessage(context.Background(), text("tell me a story")))
	s := mgr.Snapshot()
	assert.False(t, s.IsSending)
	assert.True(t, s.IsStreaming, "streaming continues until chat_end")

	events := []backend.StreamEvent{
		{Type: backend.EventChatStart, ConversationID: "conv-a"},
		{Type: backend.EventChatChunk, ConversationID: "conv-a", Content: "Once "},
		{Type: backend.EventChatChunk, ConversationID: "conv-a", Content: "upon a time"},
	}
	for _, ev := range events {
		require.True(t, mgr.HandleStreamEvent(ev))
	}
	assert.Equal(t, "Once upon a time", mgr.Snapshot().StreamingContent)

	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{
		Type:           backend.EventChatEnd,
		ConversationID: "conv-a",
		Message:        &model.Message{ID: "reply-x", Role: model.RoleAssistant, Content: text("Once upon a time")},
	}))
	s = mgr.Snapshot()
	assert.False(t, s.IsStreaming)
	last := s.Messages[len(s.Messages)-1]
	assert.Equal(t, "reply-x", last.ID)
	assert.Equal(t, "conv-a", last.ConversationID, "conversation id filled from the event")
}

func TestStream_NewChatAdoptsStreamBeforeResponse(t *testing.T) {
	fb := newFakeBackend()
	fb.set(func(f *fakeBackend) { f.noReply = true })
	mgr := NewManager(fb, WithStreamingReplies(true))

	release := fb.hold()
	done := startSend(t, mgr, text("hello new chat"))

	// The server streams before the POST returns.
	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventChatStart, ConversationID: "conv-new-1"}))
	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventChatChunk, ConversationID: "conv-new-1", Content: "Hi"}))
	assert.False(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventChatChunk, ConversationID: "conv-other", Content: "no"}))

	release()
	require.NoError(t, wait(t, done))

	s := mgr.Snapshot()
	assert.Equal(t, "conv-new-1", s.CurrentID())
	assert.True(t, s.IsStreaming)
	assert.Equal(t, "Hi", s.StreamingContent)

	require.True(t, mgr.CompleteStream(reply("r-1", "conv-new-1", "Hi there")))
	s = mgr.Snapshot()
	assert.False(t, s.IsStreaming)
	assert.Len(t, s.Messages, 2)
}

func TestStream_NewChatAdoptsOnlyItsOwnClientID(t *testing.T) {
	fb := newFakeBackend()
	fb.set(func(f *fakeBackend) { f.noReply = true })
	mgr := NewManager(fb, WithStreamingReplies(true))

	release := fb.hold()
	done := startSend(t, mgr, text("hello new chat"))
	var tag string
	fb.set(func(f *fakeBackend) { tag = f.lastSend.ClientMessageID })
	require.NotEmpty(t, tag)

	assert.False(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventChatStart, ConversationID: "conv-zzz", ClientMessageID: "temp-other"}))
	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventChatStart, ConversationID: "conv-new-1", ClientMessageID: tag}))
	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventChatChunk, ConversationID: "conv-new-1", ClientMessageID: tag, Content: "Hi"}))

	release()
	require.NoError(t, wait(t, done))

	s := mgr.Snapshot()
	assert.Equal(t, "conv-new-1", s.CurrentID())
	assert.Equal(t, "Hi", s.StreamingContent)
}

func TestStream_FailedSelectKeepsLiveBuffer(t *testing.T) {
	fb := newFakeBackend()
	fb.set(func(f *fakeBackend) { f.noReply = true })
	mgr := NewManager(fb, WithStreamingReplies(true))
	selectA(t, mgr)

	require.NoError(t, mgr.SendMessage(context.Background(), text("tell me a story")))
	require.True(t, mgr.AddStreamChunk("conv-a", "Once "))

	fb.set(func(f *fakeBackend) { f.getErr = errBackendDown })
	require.Error(t, mgr.SelectConversation(context.Background(), "conv-b"))

	require.True(t, mgr.AddStreamChunk("conv-a", "upon"))
	s := mgr.Snapshot()
	assert.Equal(t, "conv-a", s.CurrentID())
	assert.True(t, s.IsStreaming)
	assert.Equal(t, "Once upon", s.StreamingContent)
}

func TestStream_SyncReplyWithoutStreamingClearsFlag(t *testing.T) {
	fb := newFakeBackend()
	fb.set(func(f *fakeBackend) { f.noReply = true })
	mgr := NewManager(fb)
	selectA(t, mgr)

	require.NoError(t, mgr.SendMessage(context.Background(), text("no stream configured")))
	assert.False(t, mgr.Snapshot().IsStreaming)
}

// =============================================================================
// FILE PROCESSING EVENTS
// =============================================================================

func TestStream_FileProcessingEvents(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	f, err := mgr.AddPendingFile(files.Descriptor{Filename: "memo.wav", ContentType: "audio/wav", Size: 1024})
	require.NoError(t, err)
	require.True(t, mgr.UpdatePendingFile(f.ID, model.ReadyUpdate("file-memo", "https://cdn/memo.wav")))

	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventProcessingStatus, FileID: "file-memo", Content: "processing", Progress: 10}))
	got, ok := mgr.PendingFile("file-memo")
	require.True(t, ok)
	assert.Equal(t, model.FileProcessing, got.Status)
	assert.Equal(t, 10, got.Progress)

	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventTranscriptionProgress, FileID: "file-memo", Progress: 70, Content: "Remind me to"}))
	got, _ = mgr.PendingFile("file-memo")
	assert.Equal(t, 70, got.Progress)
	assert.Equal(t, "Remind me to", got.Transcription)

	require.True(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventProcessingStatus, FileID: "file-memo", Content: "ready"}))
	got, _ = mgr.PendingFile("file-memo")
	assert.Equal(t, model.FileReady, got.Status)
	assert.Equal(t, 100, got.Progress)

	assert.False(t, mgr.HandleStreamEvent(backend.StreamEvent{Type: backend.EventProcessingStatus, FileID: "gone"}))
}

// =============================================================================
// CONSUME
// =============================================================================

type chanSource struct {
	ch chan backend.StreamEvent
}

func (c *chanSource) Events() <-chan backend.StreamEvent { return c.ch }
func (c *chanSource) Close() error                       { close(c.ch); return nil }

func TestConsume(t *testing.T) {
	mgr := NewManager(newFakeBackend())
	selectA(t, mgr)

	src := &chanSource{ch: make(chan backend.StreamEvent, 4)}
	src.ch <- backend.StreamEvent{Type: backend.EventChatStart, ConversationID: "conv-a"}
	src.ch <- backend.StreamEvent{Type: backend.EventChatChunk, ConversationID: "conv-a", Content: "abc"}
	require.NoError(t, src.Close())

	mgr.Consume(context.Background(), src)
	assert.Equal(t, "abc", mgr.Snapshot().StreamingContent)
}
