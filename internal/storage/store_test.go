// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func openTestStore(t *testing.T, mutate func(*config.LocalConfig), opts ...Option) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := config.LocalConfig{
		Enabled:  true,
		DBPath:   filepath.Join(dir, "test.db"),
		BlobDir:  filepath.Join(dir, "blobs"),
		SeedDemo: true,
		UserID:   DemoUserID,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := Open(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func send(t *testing.T, s *Store, convID, text string) backend.SendResponse {
	t.Helper()
	resp, err := s.SendMessage(context.Background(), backend.SendRequest{
		ConversationID: convID,
		Content:        []model.ContentPart{model.TextPart(text)},
	})
	require.NoError(t, err)
	return resp
}

// =============================================================================
// OPEN / SEED TESTS
// =============================================================================

func TestOpen_SeedsDemoConversations(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	convs, err := s.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 4)
	assert.Equal(t, "conv-1", convs[0].ID, "most recently updated first")
	assert.Equal(t, "conv-4", convs[3].ID)
	assert.Equal(t, 4, convs[0].MessageCount)
	assert.NotEmpty(t, convs[0].LastMessagePreview)
	assert.Zero(t, convs[3].MessageCount)

	conv2, err := s.GetConversation(ctx, "conv-2")
	require.NoError(t, err)
	require.Len(t, conv2.Messages, 2)
	atts := conv2.Messages[0].Attachments()
	require.Len(t, atts, 1)
	assert.Equal(t, model.KindImage, atts[0].Kind)
	assert.Equal(t, "mountain.jpg", atts[0].Filename)
	assert.Equal(t, "gpt-4o-vision", conv2.Messages[1].ModelUsed)
	assert.Equal(t, 1200, conv2.Messages[1].TokensInput)
}

func TestOpen_SeedOnlyOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LocalConfig{DBPath: filepath.Join(dir, "once.db"), SeedDemo: true}

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.DeleteConversation(context.Background(), "conv-1"))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	convs, err := s.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Len(t, convs, 3, "reopening must not reseed a non-empty database")
}

func TestOpen_WithoutSeed(t *testing.T) {
	s := openTestStore(t, func(c *config.LocalConfig) { c.SeedDemo = false })
	convs, err := s.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestOpen_MemoryDatabase(t *testing.T) {
	s, err := Open(config.LocalConfig{DBPath: ":memory:", SeedDemo: true})
	require.NoError(t, err)
	defer s.Close()
	convs, err := s.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Len(t, convs, 4)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(config.LocalConfig{})
	assert.Error(t, err)
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestGetConversation_NotFound(t *testing.T) {
	s := openTestStore(t, nil)
	_, err := s.GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestCreateAndDeleteConversation(t *testing.T) {
	s := openTestStore(t, func(c *config.LocalConfig) { c.SeedDemo = false })
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "Fresh")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(conv.ID, "conv-"))
	assert.Equal(t, "Fresh", conv.Title)
	assert.Equal(t, DemoUserID, conv.UserID)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))
	assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID), backend.ErrNotFound)
}

func TestDeleteConversation_CascadesMessages(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, s.DeleteConversation(ctx, "conv-1"))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE conversation_id = 'conv-1'`).Scan(&n))
	assert.Zero(t, n)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage_ExistingConversation(t *testing.T) {
	s := openTestStore(t, nil)
	resp := send(t, s, "conv-4", "What should I cook tonight?")

	assert.Equal(t, "conv-4", resp.Message.ConversationID)
	assert.False(t, model.IsTempID(resp.Message.ID))
	require.NotNil(t, resp.Reply, "non-streaming stores answer inline")
	assert.Equal(t, model.RoleAssistant, resp.Reply.Role)
	assert.Equal(t, DemoModel, resp.Reply.ModelUsed)
	assert.Positive(t, resp.Reply.TokensOutput)
	assert.Equal(t, 2, resp.Conversation.MessageCount)

	conv, err := s.GetConversation(context.Background(), "conv-4")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, resp.Message.ID, conv.Messages[0].ID)
	assert.Equal(t, resp.Reply.ID, conv.Messages[1].ID)
}

func TestSendMessage_NewConversation(t *testing.T) {
	s := openTestStore(t, func(c *config.LocalConfig) { c.SeedDemo = false })
	resp, err := s.SendMessage(context.Background(), backend.SendRequest{
		Content:         []model.ContentPart{model.TextPart("Plan a trip to Lisbon")},
		ModelPreference: "gpt-4o",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Conversation.ID)
	assert.Equal(t, "Plan a trip to Lisbon", resp.Conversation.Title)
	assert.Equal(t, "gpt-4o", resp.Conversation.ModelPreference)
	assert.Equal(t, "gpt-4o", resp.Reply.ModelUsed)
	assert.Equal(t, resp.Conversation.ID, resp.Message.ConversationID)

	convs, err := s.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 1)
}

func TestSendMessage_UnknownConversation(t *testing.T) {
	s := openTestStore(t, nil)
	_, err := s.SendMessage(context.Background(), backend.SendRequest{
		ConversationID: "nope",
		Content:        []model.ContentPart{model.TextPart("hi")},
	})
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestSendMessage_EmptyContent(t *testing.T) {
	s := openTestStore(t, nil)
	_, err := s.SendMessage(context.Background(), backend.SendRequest{ConversationID: "conv-4"})
	assert.Error(t, err)
}

func TestSendMessage_MovesConversationToTop(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, nil, WithClock(func() time.Time { return clock }))
	send(t, s, "conv-4", "bump")

	convs, err := s.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conv-4", convs[0].ID)
	assert.Equal(t, clock, convs[0].UpdatedAt)
}

func TestSendMessage_AcknowledgesAttachments(t *testing.T) {
	s := openTestStore(t, nil)
	resp, err := s.SendMessage(context.Background(), backend.SendRequest{
		ConversationID: "conv-4",
		Content: []model.ContentPart{
			model.ImagePart("https://cdn/cat.jpg", "cat.jpg", "image/jpeg"),
			model.TextPart("what is this?"),
		},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply.Text(), "[image: cat.jpg]")
	assert.Equal(t, model.KindImage, resp.Message.Content[0].Kind, "part order is preserved")
}

func TestSendMessage_StreamsThroughHub(t *testing.T) {
	s := openTestStore(t, func(c *config.LocalConfig) { c.Stream = true })
	sub := s.Hub().Subscribe()
	defer sub.Close()

	resp := send(t, s, "conv-4", "stream please")
	assert.Nil(t, resp.Reply)

	var (
		chunks strings.Builder
		types  []backend.EventType
		end    *model.Message
	)
	timeout := time.After(5 * time.Second)
	for end == nil {
		select {
		case ev := <-sub.Events():
			types = append(types, ev.Type)
			assert.Equal(t, "conv-4", ev.ConversationID)
			switch ev.Type {
			case backend.EventChatChunk:
				chunks.WriteString(ev.Content)
			case backend.EventChatEnd:
				end = ev.Message
			}
		case <-timeout:
			t.Fatal("timed out waiting for chat_end")
		}
	}

	assert.Equal(t, backend.EventChatStart, types[0])
	require.NotNil(t, end)
	assert.Equal(t, end.Text(), chunks.String(), "chunks concatenate to the final reply")

	conv, err := s.GetConversation(context.Background(), "conv-4")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, end.ID, conv.Messages[1].ID)
}

func TestSendMessage_StreamEventsEchoClientID(t *testing.T) {
	s := openTestStore(t, func(c *config.LocalConfig) { c.Stream = true })
	sub := s.Hub().Subscribe()
	defer sub.Close()

	_, err := s.SendMessage(context.Background(), backend.SendRequest{
		ClientMessageID: "temp-abc",
		Content:         []model.ContentPart{model.TextPart("hello")},
	})
	require.NoError(t, err)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, "temp-abc", ev.ClientMessageID, "event %s", ev.Type)
			if ev.Type == backend.EventChatEnd {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for chat_end")
		}
	}
}

func TestSplitChunks(t *testing.T) {
	text := "Hello there,\n\n**world** and  more"
	chunks := splitChunks(text)
	assert.Equal(t, text, strings.Join(chunks, ""))
	assert.Equal(t, "Hello ", chunks[0])
	assert.Empty(t, splitChunks(""))
}

func TestModelFor(t *testing.T) {
	assert.Equal(t, DemoModel, modelFor(""))
	assert.Equal(t, DemoModel, modelFor(model.AutoModel))
	assert.Equal(t, "grok-2", modelFor(" grok-2 "))
}

// =============================================================================
// HUB TESTS
// =============================================================================

func TestHub_FanOutAndClose(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish(backend.StreamEvent{Type: backend.EventChatStart, ConversationID: "c"})
	assert.Equal(t, backend.EventChatStart, (<-a.Events()).Type)
	assert.Equal(t, backend.EventChatStart, (<-b.Events()).Type)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "double close is safe")
	assert.Equal(t, 1, h.Subscribers())
	_, ok := <-a.Events()
	assert.False(t, ok)

	h.Close()
	_, ok = <-b.Events()
	assert.False(t, ok)

	late := h.Subscribe()
	_, ok = <-late.Events()
	assert.False(t, ok, "subscribing to a closed hub yields a closed channel")
}

// =============================================================================
// UPLOAD TESTS
// =============================================================================

func TestUploadFile_StoresAndReports(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()
	data := bytes.Repeat([]byte{0xAB}, 64*1024)

	var progress []int
	up, err := s.UploadFile(ctx, backend.Upload{
		Filename: "photo.png", ContentType: "image/png", Size: int64(len(data)), Body: bytes.NewReader(data),
	}, func(p int) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.ID, "file-"))
	assert.True(t, strings.HasPrefix(up.URL, "file://"))
	assert.Equal(t, up.URL, up.ThumbnailURL)
	assert.Equal(t, int64(len(data)), up.Size)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])

	rec, fh, err := s.OpenFile(ctx, up.ID)
	require.NoError(t, err)
	defer fh.Close()
	got, err := io.ReadAll(fh)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "photo.png", rec.Filename)
}

func TestUploadFile_BaseURL(t *testing.T) {
	s := openTestStore(t, nil, WithFileBaseURL("http://localhost:8000/api/v1/"))
	up, err := s.UploadFile(context.Background(), backend.Upload{
		Filename: "a.mp3", ContentType: "audio/mpeg", Size: 3, Body: strings.NewReader("abc"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1/files/"+up.ID, up.URL)
	assert.NotEmpty(t, up.Transcription)
}

func TestUploadFile_PolicyRejections(t *testing.T) {
	policy := files.NewPolicy(config.FilesConfig{MaxSizeMB: 1, ImageTypes: []string{"image/png"}})
	s := openTestStore(t, nil, WithPolicy(policy))
	ctx := context.Background()

	_, err := s.UploadFile(ctx, backend.Upload{Filename: "x.exe", ContentType: "application/x-msdownload", Size: 1, Body: strings.NewReader("x")}, nil)
	assert.ErrorIs(t, err, files.ErrTypeNotAllowed)

	big := bytes.Repeat([]byte("x"), 2<<20)
	_, err = s.UploadFile(ctx, backend.Upload{Filename: "lie.png", ContentType: "image/png", Size: 10, Body: bytes.NewReader(big)}, nil)
	assert.ErrorIs(t, err, files.ErrTooLarge, "actual bytes are checked, not just the declared size")
}

func TestUploadFile_Disabled(t *testing.T) {
	s := openTestStore(t, func(c *config.LocalConfig) { c.BlobDir = "" })
	_, err := s.UploadFile(context.Background(), backend.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("")}, nil)
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestOpenFile_NotFound(t *testing.T) {
	s := openTestStore(t, nil)
	_, _, err := s.OpenFile(context.Background(), "file-missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}
