// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want Status
	}{
		{"idle", session.Snapshot{}, StatusReady},
		{"loading", session.Snapshot{IsLoading: true}, StatusLoading},
		{"sending", session.Snapshot{IsSending: true, IsStreaming: true}, StatusSending},
		{"streaming", session.Snapshot{IsSending: true, IsStreaming: true, StreamingContent: "he"}, StatusStreaming},
		{"uploading", session.Snapshot{PendingFiles: []model.PendingFile{{Status: model.FileUploading}}}, StatusUploading},
		{"error wins", session.Snapshot{IsLoading: true, Error: errors.New("boom")}, StatusError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFor(tc.snap); got != tc.want {
				t.Errorf("StatusFor() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusBarView(t *testing.T) {
	bar := StatusBar{
		Status:    StatusReady,
		Model:     "gpt-4o",
		Ready:     1,
		Pending:   2,
		Shortcuts: []Shortcut{{"ctrl+n", "new"}},
		Width:     120,
	}
	out := bar.View(testTheme())
	for _, want := range []string{"Ready", "gpt-4o", "files: 1/2 ready", "ctrl+n"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar %q missing %q", out, want)
		}
	}

	bar.Width = 20
	if strings.Contains(bar.View(testTheme()), "ctrl+n") {
		t.Error("hints should be dropped when there is no room")
	}
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func conversations(n int) []model.Conversation {
	out := make([]model.Conversation, n)
	for i := range out {
		out[i] = model.Conversation{
			ID:                 fmt.Sprintf("conv-%d", i),
			Title:              fmt.Sprintf("Chat %d", i),
			LastMessagePreview: fmt.Sprintf("preview %d", i),
		}
	}
	return out
}

func TestSidebar_VisibleRangeFollowsCursor(t *testing.T) {
	s := Sidebar{Conversations: conversations(10), Height: 8} // 3 rows

	start, end := s.VisibleRange()
	if start != 0 || end != 3 {
		t.Errorf("VisibleRange() = %d,%d, want 0,3", start, end)
	}

	s.Cursor = 7
	start, end = s.VisibleRange()
	if start != 5 || end != 8 {
		t.Errorf("VisibleRange() with cursor 7 = %d,%d, want 5,8", start, end)
	}
}

func TestSidebar_View(t *testing.T) {
	s := Sidebar{Conversations: conversations(2), CurrentID: "conv-1", Width: 30, Height: 20}
	out := s.View(testTheme())
	for _, want := range []string{"Chats (2)", "Chat 0", "* Chat 1", "preview 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("sidebar missing %q:\n%s", want, out)
		}
	}

	empty := Sidebar{Width: 30, Height: 10}.View(testTheme())
	if !strings.Contains(empty, "No conversations yet") {
		t.Errorf("empty sidebar should say so:\n%s", empty)
	}
}

// =============================================================================
// FILE STRIP TESTS
// =============================================================================

func TestFileStrip_View(t *testing.T) {
	strip := NewFileStrip()
	if strip.View(testTheme(), nil, 80) != "" {
		t.Error("no pending files should render nothing")
	}

	out := strip.View(testTheme(), []model.PendingFile{
		{Filename: "cat.png", Size: 2048, Status: model.FileReady, Progress: 100},
		{Filename: "talk.mp3", Size: 4096, Status: model.FileUploading, Progress: 42},
		{Filename: "big.mov", Status: model.FileError, Error: "file too large"},
	}, 120)
	for _, want := range []string{"cat.png", "ready", "talk.mp3", "42%", "big.mov", "file too large"} {
		if !strings.Contains(out, want) {
			t.Errorf("file strip missing %q:\n%s", want, out)
		}
	}
}

// =============================================================================
// BANNER TESTS
// =============================================================================

func failedSnapshot(retries int) session.Snapshot {
	return session.Snapshot{
		FailedMessage: &model.FailedMessage{Content: []model.ContentPart{model.TextPart("hello there")}},
		RetryCount:    retries,
		MaxRetries:    3,
	}
}

func TestRetryBanner(t *testing.T) {
	theme := testTheme()
	if RetryBanner(theme, session.Snapshot{}, 80) != "" {
		t.Error("no failed message should render nothing")
	}

	out := RetryBanner(theme, failedSnapshot(1), 100)
	for _, want := range []string{"hello there", "attempt 2 of 4", "retry", "dismiss"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}

	exhausted := RetryBanner(theme, failedSnapshot(3), 200)
	if !strings.Contains(exhausted, "could not be delivered") {
		t.Errorf("exhausted banner should show the terminal message:\n%s", exhausted)
	}
	if strings.Contains(exhausted, "retry") {
		t.Errorf("exhausted banner must not offer retry:\n%s", exhausted)
	}
}

func TestErrorLine(t *testing.T) {
	theme := testTheme()
	snap := session.Snapshot{Error: &session.NetworkError{Op: "load conversation", Err: errors.New("timeout")}}
	if out := ErrorLine(theme, snap, 100); !strings.Contains(out, "timeout") {
		t.Errorf("ErrorLine() = %q", out)
	}

	failed := failedSnapshot(0)
	failed.Error = errors.New("send failed")
	if ErrorLine(theme, failed, 100) != "" {
		t.Error("send failures are shown by the retry banner only")
	}
}

func TestErrorText(t *testing.T) {
	if got := ErrorText(&session.RetryExhaustedError{Attempts: 3}); got != RetryExhaustedText {
		t.Errorf("ErrorText(exhausted) = %q", got)
	}
	validation := &session.ValidationError{Op: "send", Err: session.ErrEmptyMessage}
	if got := ErrorText(validation); !strings.Contains(got, "Type a message") {
		t.Errorf("ErrorText(empty) = %q", got)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageRenderer_Render(t *testing.T) {
	r := NewMessageRenderer(testTheme(), false, true)
	r.SetWidth(100)

	msg := &model.Message{
		ID:   "msg-2",
		Role: model.RoleAssistant,
		Content: []model.ContentPart{
			model.TextPart("A mountain at dawn."),
			{Kind: model.KindAudio, Filename: "note.mp3", Transcription: "hello world"},
		},
		Meta:      model.Meta{ModelUsed: "gpt-4o", TokensInput: 45, TokensOutput: 230, LatencyMs: 1250},
		CreatedAt: time.Date(2025, 1, 1, 9, 30, 0, 0, time.Local),
	}
	out := r.Render(msg)
	for _, want := range []string{"Assistant", "09:30", "A mountain at dawn.", "[audio: note.mp3]", "transcript: hello world", "45 in / 230 out"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}

	user := model.NewUserMessage("", []model.ContentPart{model.TextPart("hi")})
	if out := r.Render(user); !strings.Contains(out, "sending") || !strings.Contains(out, "You") {
		t.Errorf("optimistic message should be marked as sending:\n%s", out)
	}
}

func TestMessageRenderer_RenderStreaming(t *testing.T) {
	r := NewMessageRenderer(testTheme(), true, false)
	r.SetWidth(80)

	if out := r.RenderStreaming("", "..."); !strings.Contains(out, "typing") {
		t.Errorf("empty buffer should show the typing indicator:\n%s", out)
	}
	if out := r.RenderStreaming("partial reply", "."); !strings.Contains(out, "partial reply") {
		t.Errorf("streaming buffer missing:\n%s", out)
	}
}

func TestMessageRenderer_MarkdownEnabled(t *testing.T) {
	r := NewMessageRenderer(testTheme(), true, false)
	r.SetWidth(80)
	out := r.RenderMarkdown("# Title\n\nSome **bold** text")
	if !strings.Contains(out, "Title") || strings.Contains(out, "**") {
		t.Errorf("markdown not rendered:\n%s", out)
	}
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestHighlightFences(t *testing.T) {
	in := "Here is code:\n```go\nfunc main() {}\n```\nDone."
	out := HighlightFences(in)
	if strings.Contains(out, "```") {
		t.Errorf("fences should be replaced:\n%s", out)
	}
	if !strings.HasPrefix(out, "Here is code:") || !strings.HasSuffix(out, "Done.") {
		t.Errorf("prose should be untouched:\n%s", out)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("code should survive highlighting:\n%s", out)
	}
}

func TestHighlightFences_Unclosed(t *testing.T) {
	out := HighlightFences("start\n```\npartial")
	if !strings.Contains(out, "partial") || strings.Contains(out, "```") {
		t.Errorf("unclosed block mishandled:\n%s", out)
	}
}

func TestHeader(t *testing.T) {
	theme := testTheme()
	out := Header(theme, &model.Conversation{Title: "Trip plan", MessageCount: 4}, 80)
	for _, want := range []string{Brand, "Trip plan", "4 messages"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q: %s", want, out)
		}
	}
	if out := Header(theme, nil, 80); !strings.Contains(out, model.DefaultTitle) {
		t.Errorf("new chat header: %s", out)
	}
}
