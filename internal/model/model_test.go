// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONTENT TESTS
// =============================================================================

func TestKindForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want ContentKind
	}{
		{"image/jpeg", KindImage},
		{"IMAGE/PNG", KindImage},
		{"audio/mpeg", KindAudio},
		{"video/mp4", KindVideo},
		{"application/pdf", KindFile},
		{"", KindFile},
	}
	for _, tc := range tests {
		t.Run(tc.mime, func(t *testing.T) {
			assert.Equal(t, tc.want, KindForMIME(tc.mime))
		})
	}
}

func TestContentPart_IsBlank(t *testing.T) {
	assert.True(t, TextPart("   \n").IsBlank())
	assert.False(t, TextPart("hi").IsBlank())
	assert.False(t, MediaPart("", "a.png", "image/png").IsBlank(), "media parts are never blank, even while uploading")
}

func TestContentPart_WireFormat(t *testing.T) {
	data, err := json.Marshal(ImagePart("https://cdn/x.jpg", "x.jpg", "image/jpeg"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"image","url":"https://cdn/x.jpg","filename":"x.jpg","mime_type":"image/jpeg"}`, string(data))
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	parts := []ContentPart{TextPart("hello")}
	msg := NewUserMessage("conv-1", parts)

	assert.True(t, IsTempID(msg.ID), "ID %q should be temporary", msg.ID)
	assert.Equal(t, RoleUser, msg.Role)
	assert.False(t, msg.CreatedAt.IsZero())

	parts[0].Text = "mutated"
	assert.Equal(t, "hello", msg.Content[0].Text, "message must not alias caller slice")
}

func TestMessage_TextAndAttachments(t *testing.T) {
	msg := &Message{Content: []ContentPart{
		MediaPart("u1", "a.png", "image/png"),
		TextPart("first"),
		MediaPart("u2", "b.wav", "audio/wav"),
		TextPart("second"),
	}}

	assert.Equal(t, "first\nsecond", msg.Text())
	atts := msg.Attachments()
	require.Len(t, atts, 2)
	assert.Equal(t, KindImage, atts[0].Kind)
	assert.Equal(t, KindAudio, atts[1].Kind)
}

func TestMessage_Preview(t *testing.T) {
	msg := &Message{Content: []ContentPart{TextPart("line one\nline   two and a much longer tail")}}
	p := msg.Preview(16)
	assert.NotContains(t, p, "\n")
	assert.LessOrEqual(t, len([]rune(p)), 16)

	media := &Message{Content: []ContentPart{MediaPart("u", "cat.jpg", "image/jpeg")}}
	assert.Equal(t, "[image: cat.jpg]", media.Preview(40))
}

func TestMessage_CloneIsDeep(t *testing.T) {
	orig := &Message{ID: "m1", Content: []ContentPart{TextPart("a")}}
	c := orig.Clone()
	c.Content[0].Text = "b"
	assert.Equal(t, "a", orig.Content[0].Text)
}

func TestMessage_FormatStats(t *testing.T) {
	user := &Message{Role: RoleUser, Meta: Meta{ModelUsed: "gpt-4o"}}
	assert.Empty(t, user.FormatStats())

	asst := &Message{Role: RoleAssistant, Meta: Meta{
		ModelUsed: "gpt-4o", TokensInput: 45, TokensOutput: 230, LatencyMs: 1250,
	}}
	stats := asst.FormatStats()
	for _, want := range []string{"gpt-4o", "45 in / 230 out", "1.25s"} {
		assert.True(t, strings.Contains(stats, want), "FormatStats() = %q, want %q", stats, want)
	}
}

func TestMessage_MetaFlattenedOnWire(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"id":"msg-2","role":"assistant","content":[{"type":"text","text":"hi"}],"model_used":"gpt-4o","tokens_output":12}`), &msg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", msg.ModelUsed)
	assert.Equal(t, 12, msg.TokensOutput)
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestUpsertConversation(t *testing.T) {
	list := []Conversation{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}

	updated := UpsertConversation(list, Conversation{ID: "b", Title: "B2"})
	require.Len(t, updated, 2)
	assert.Equal(t, "B2", updated[1].Title)
	assert.Equal(t, "B", list[1].Title, "input slice must not be modified")

	inserted := UpsertConversation(list, Conversation{ID: "c", Title: "C"})
	require.Len(t, inserted, 3)
	assert.Equal(t, "c", inserted[0].ID, "new conversations go to the head")
}

func TestRemoveConversation(t *testing.T) {
	list := []Conversation{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, []Conversation{{ID: "b"}}, RemoveConversation(list, "a"))
	assert.Len(t, RemoveConversation(list, "missing"), 2)
}

func TestTitleFromContent(t *testing.T) {
	assert.Equal(t, "describe this", TitleFromContent([]ContentPart{
		MediaPart("u", "x.jpg", "image/jpeg"), TextPart("  describe\nthis "),
	}))
	assert.Equal(t, "x.jpg", TitleFromContent([]ContentPart{MediaPart("u", "x.jpg", "image/jpeg")}))
	assert.Equal(t, DefaultTitle, TitleFromContent(nil))

	long := TitleFromContent([]ContentPart{TextPart(strings.Repeat("word ", 40))})
	assert.LessOrEqual(t, len([]rune(long)), maxTitleRunes)
}

// =============================================================================
// PENDING FILE TESTS
// =============================================================================

func TestPendingFile_ToContentPart(t *testing.T) {
	tests := []struct {
		contentType string
		want        ContentKind
	}{
		{"image/webp", KindImage},
		{"audio/ogg", KindAudio},
		{"video/quicktime", KindVideo},
		{"application/pdf", KindFile},
	}
	for _, tc := range tests {
		f := PendingFile{ID: "f", URL: "https://cdn/f", Filename: "f", ContentType: tc.contentType, Status: FileReady}
		part := f.ToContentPart()
		assert.Equal(t, tc.want, part.Kind, tc.contentType)
		assert.Equal(t, "https://cdn/f", part.URL)
		assert.Equal(t, tc.contentType, part.MimeType)
	}
}

func TestPendingFileUpdate_Apply(t *testing.T) {
	f := PendingFile{ID: "temp-1", Status: FileUploading}

	f = ProgressUpdate(150).Apply(f)
	assert.Equal(t, 100, f.Progress, "progress is clamped")
	f = ProgressUpdate(-5).Apply(f)
	assert.Equal(t, 0, f.Progress)

	f = ReadyUpdate("file-9", "https://cdn/9").Apply(f)
	assert.Equal(t, "file-9", f.ID)
	assert.Equal(t, FileReady, f.Status)
	assert.Equal(t, 100, f.Progress)
	assert.True(t, f.Status.IsTerminal())

	f = ErrorUpdate("boom").Apply(PendingFile{ID: "x", Status: FileUploading})
	assert.Equal(t, FileError, f.Status)
	assert.Equal(t, "boom", f.Error)
	assert.Equal(t, "x", f.ID, "error updates keep the temporary id")
}

// =============================================================================
// MODEL CATALOG TESTS
// =============================================================================

func TestSortedModels_GroupedByProvider(t *testing.T) {
	models := SortedModels()
	require.Len(t, models, len(Models))
	assert.Equal(t, AutoModel, models[0].ID)

	info, ok := LookupModel(" GPT-4o ")
	require.True(t, ok)
	assert.True(t, info.Supports(KindImage))
	assert.True(t, info.Supports(KindText))
	assert.False(t, info.Supports(KindVideo))
}
