// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/storage"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

// flakyBackend fails sends while failing is set.
type flakyBackend struct {
	*storage.Store
	failing atomic.Bool
}

func (f *flakyBackend) SendMessage(ctx context.Context, req backend.SendRequest) (backend.SendResponse, error) {
	if f.failing.Load() {
		return backend.SendResponse{}, errors.New("connection refused")
	}
	return f.Store.SendMessage(ctx, req)
}

type harness struct {
	model   Model
	mgr     *session.Manager
	backend *flakyBackend
}

func newHarness(t *testing.T, opts ...session.Option) *harness {
	t.Helper()
	store, err := storage.Open(config.LocalConfig{
		DBPath:   ":memory:",
		BlobDir:  t.TempDir(),
		SeedDemo: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fb := &flakyBackend{Store: store}
	mgr := session.NewManager(fb, opts...)
	m := New(mgr, Options{
		Theme:    styles.NewTheme(styles.ModeDark),
		UI:       config.UIConfig{ShowStats: true, SidebarWidth: 24},
		Attacher: files.NewAttacher(mgr, store),
	})
	t.Cleanup(m.Close)

	h := &harness{model: m, mgr: mgr, backend: fb}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send feeds msg to the model and returns the command it produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

// run executes an operation command, feeds its result back, then syncs
// the snapshot the way the change notification would.
func (h *harness) run(t *testing.T, cmd tea.Cmd) opDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(opDoneMsg)
	require.True(t, ok, "expected opDoneMsg, got %T", msg)
	h.send(done)
	h.send(stateChangedMsg{})
	return done
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixel.png")
	data := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestModel_ViewBeforeResize(t *testing.T) {
	store, err := storage.Open(config.LocalConfig{DBPath: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	m := New(session.NewManager(store), Options{Theme: styles.NewTheme(styles.ModeLight)})
	defer m.Close()
	assert.Equal(t, "Loading...", m.View())
	assert.NotNil(t, m.Init())
}

func TestModel_LoadsConversationList(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())

	snap := h.model.Snapshot()
	require.Len(t, snap.Conversations, 4)
	view := h.model.View()
	assert.Contains(t, view, "Chats (4)")
	title := []rune(snap.Conversations[0].DisplayTitle())
	assert.Contains(t, view, string(title[:min(len(title), 10)]))
}

func TestModel_NarrowLayoutHidesSidebar(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())
	h.send(tea.WindowSizeMsg{Width: 50, Height: 30})
	assert.NotContains(t, h.model.View(), "Chats (4)")
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func TestModel_OpenConversationFromSidebar(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())

	h.send(keyMsg(tea.KeyTab))
	assert.Equal(t, focusSidebar, h.model.focus)
	h.send(keyMsg(tea.KeyDown))
	assert.Equal(t, 1, h.model.cursor)

	want := h.model.Snapshot().Conversations[1].ID
	cmd := h.send(keyMsg(tea.KeyEnter))
	h.run(t, cmd)

	assert.Equal(t, focusComposer, h.model.focus)
	assert.Equal(t, want, h.model.Snapshot().CurrentID())
	assert.Equal(t, 1, h.model.cursor, "cursor follows the open conversation")
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())
	h.send(keyMsg(tea.KeyTab))

	h.send(keyMsg(tea.KeyUp))
	assert.Equal(t, 0, h.model.cursor)
	for i := 0; i < 10; i++ {
		h.send(keyMsg(tea.KeyDown))
	}
	assert.Equal(t, 3, h.model.cursor)
}

// =============================================================================
// COMPOSER TESTS
// =============================================================================

func TestModel_SendStartsConversation(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())

	h.typeText("hello there")
	assert.Equal(t, "hello there", h.model.ComposerValue())

	cmd := h.send(keyMsg(tea.KeyEnter))
	assert.Empty(t, h.model.ComposerValue(), "composer clears once the send is dispatched")
	done := h.run(t, cmd)
	require.NoError(t, done.err)

	snap := h.model.Snapshot()
	require.NotNil(t, snap.Current)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "hello there", snap.Messages[0].Text())
	assert.Equal(t, model.RoleAssistant, snap.Messages[1].Role)
	assert.Len(t, snap.Conversations, 5)
	assert.Contains(t, h.model.View(), "hello there")
}

func TestModel_EmptySendIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.typeText("   ")
	assert.Nil(t, h.send(keyMsg(tea.KeyEnter)))
}

func TestModel_NewlineKeepsComposing(t *testing.T) {
	h := newHarness(t)
	h.typeText("line one")
	h.send(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	h.typeText("line two")
	assert.Equal(t, "line one\nline two", h.model.ComposerValue())
}

// =============================================================================
// RETRY BANNER TESTS
// =============================================================================

func TestModel_FailedSendShowsRetryBanner(t *testing.T) {
	h := newHarness(t)
	h.backend.failing.Store(true)

	h.typeText("will fail")
	h.run(t, h.send(keyMsg(tea.KeyEnter)))

	snap := h.model.Snapshot()
	require.NotNil(t, snap.FailedMessage)
	view := h.model.View()
	assert.Contains(t, view, "Failed to send")
	assert.Contains(t, view, "will fail")

	// New text cannot be sent until the failure is resolved, and stays put.
	h.typeText("next")
	assert.Nil(t, h.send(keyMsg(tea.KeyEnter)))
	assert.Equal(t, "next", h.model.ComposerValue())
	assert.Contains(t, h.model.Notice(), "Retry (r) or dismiss (x)")
}

func TestModel_RetrySucceeds(t *testing.T) {
	h := newHarness(t)
	h.backend.failing.Store(true)
	h.typeText("flaky")
	h.run(t, h.send(keyMsg(tea.KeyEnter)))

	h.backend.failing.Store(false)
	cmd := h.send(runeKey('r'))
	done := h.run(t, cmd)
	require.NoError(t, done.err)

	snap := h.model.Snapshot()
	assert.Nil(t, snap.FailedMessage)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "flaky", snap.Messages[0].Text())
	assert.Empty(t, h.model.ComposerValue(), "r must not leak into the composer")
}

func TestModel_RetryExhausted(t *testing.T) {
	h := newHarness(t, session.WithMaxRetries(1))
	h.backend.failing.Store(true)
	h.typeText("doomed")
	h.run(t, h.send(keyMsg(tea.KeyEnter)))
	h.run(t, h.send(runeKey('r')))

	require.True(t, h.model.Snapshot().RetryExhausted())
	assert.Contains(t, h.model.View(), "could not be delivered")

	assert.Nil(t, h.send(runeKey('r')))
	assert.Contains(t, h.model.Notice(), "No retries left")
}

func TestModel_DismissFailedMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.failing.Store(true)
	h.typeText("oops")
	h.run(t, h.send(keyMsg(tea.KeyEnter)))

	h.send(runeKey('x'))
	h.send(stateChangedMsg{})
	assert.Nil(t, h.model.Snapshot().FailedMessage)
	assert.NotContains(t, h.model.View(), "Failed to send")
}

// =============================================================================
// CONVERSATION MANAGEMENT TESTS
// =============================================================================

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())
	target := h.model.Snapshot().Conversations[0]
	h.run(t, h.model.selectCmd(target.ID))

	assert.Nil(t, h.send(keyMsg(tea.KeyCtrlD)))
	assert.Contains(t, h.model.Notice(), "again")

	cmd := h.send(keyMsg(tea.KeyCtrlD))
	h.run(t, cmd)

	snap := h.model.Snapshot()
	assert.Len(t, snap.Conversations, 3)
	assert.Nil(t, snap.Current)
	assert.Equal(t, -1, model.IndexOfConversation(snap.Conversations, target.ID))
}

func TestModel_DeleteConfirmationResetsOnOtherKey(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())
	h.run(t, h.model.selectCmd(h.model.Snapshot().Conversations[0].ID))

	h.send(keyMsg(tea.KeyCtrlD))
	h.typeText("a")
	assert.Nil(t, h.send(keyMsg(tea.KeyCtrlD)), "confirmation starts over")
}

func TestModel_DeleteWithoutSelection(t *testing.T) {
	h := newHarness(t)
	assert.Nil(t, h.send(keyMsg(tea.KeyCtrlD)))
	assert.Equal(t, "No conversation selected.", h.model.Notice())
}

func TestModel_NewChatClearsSelection(t *testing.T) {
	h := newHarness(t)
	h.run(t, h.model.listCmd())
	h.run(t, h.model.selectCmd(h.model.Snapshot().Conversations[0].ID))
	require.NotNil(t, h.model.Snapshot().Current)

	h.send(keyMsg(tea.KeyCtrlN))
	h.send(stateChangedMsg{})
	assert.Nil(t, h.model.Snapshot().Current)
	assert.Empty(t, h.model.Snapshot().Messages)
}

func TestModel_CycleModelPreference(t *testing.T) {
	h := newHarness(t, session.WithModelPreference(model.AutoModel))
	h.send(keyMsg(tea.KeyCtrlT))
	h.send(stateChangedMsg{})
	assert.Equal(t, nextModel(model.AutoModel), h.model.Snapshot().ModelPreference)
	assert.NotEqual(t, model.AutoModel, h.model.Snapshot().ModelPreference)
}

// =============================================================================
// ATTACHMENT TESTS
// =============================================================================

func TestModel_AttachByPathThenSendFileOnly(t *testing.T) {
	h := newHarness(t)
	path := writePNG(t)

	h.send(keyMsg(tea.KeyCtrlO))
	assert.Equal(t, focusPathPrompt, h.model.focus)
	assert.Contains(t, h.model.View(), "Attach file")

	h.typeText(path)
	cmd := h.send(keyMsg(tea.KeyEnter))
	assert.Equal(t, focusComposer, h.model.focus)
	done := h.run(t, cmd)
	require.NoError(t, done.err)

	snap := h.model.Snapshot()
	require.Len(t, snap.PendingFiles, 1)
	assert.Equal(t, model.FileReady, snap.PendingFiles[0].Status)
	assert.Contains(t, h.model.View(), "pixel.png")
	assert.Empty(t, h.model.Notice())

	// A ready attachment alone is enough to send.
	h.run(t, h.send(keyMsg(tea.KeyEnter)))
	snap = h.model.Snapshot()
	assert.Empty(t, snap.PendingFiles)
	require.NotEmpty(t, snap.Messages)
	assert.Len(t, snap.Messages[0].Attachments(), 1)
}

func TestModel_AttachRejectedShowsNotice(t *testing.T) {
	h := newHarness(t)
	done := h.run(t, h.model.attachCmd(filepath.Join(t.TempDir(), "missing.png")))
	require.Error(t, done.err)
	assert.NotEmpty(t, h.model.Notice())
	assert.Empty(t, h.model.Snapshot().PendingFiles)
}

func TestModel_PathPromptCancel(t *testing.T) {
	h := newHarness(t)
	h.send(keyMsg(tea.KeyCtrlO))
	h.typeText("/tmp/x")
	h.send(keyMsg(tea.KeyEsc))
	assert.Equal(t, focusComposer, h.model.focus)
	assert.Empty(t, h.model.pathPrompt.Value())
}

func TestModel_FileDropped(t *testing.T) {
	h := newHarness(t)
	path := writePNG(t)

	cmd := h.send(FileDroppedMsg{Path: path})
	assert.True(t, strings.HasPrefix(h.model.Notice(), "Attaching"))
	h.run(t, cmd)
	assert.Len(t, h.model.Snapshot().PendingFiles, 1)
}

func TestModel_AttachWithoutUploader(t *testing.T) {
	store, err := storage.Open(config.LocalConfig{DBPath: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	m := New(session.NewManager(store), Options{Theme: styles.NewTheme(styles.ModeDark)})
	defer m.Close()
	done := m.attachCmd("/tmp/anything")().(opDoneMsg)
	assert.ErrorIs(t, done.err, errNoUploads)
}

// =============================================================================
// OPERATION RESULT TESTS
// =============================================================================

func TestModel_OpDoneNotices(t *testing.T) {
	h := newHarness(t)

	h.send(opDoneMsg{op: opSend, err: &session.NetworkError{Op: "send", Err: errors.New("down")}})
	assert.Empty(t, h.model.Notice(), "network errors render from the snapshot")

	h.send(opDoneMsg{op: opSend, err: &session.ValidationError{Op: "send", Err: session.ErrSendInFlight}})
	assert.Contains(t, h.model.Notice(), "finish sending")

	h.send(opDoneMsg{op: opAttach})
	assert.Empty(t, h.model.Notice())
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestNextModel(t *testing.T) {
	models := model.SortedModels()
	assert.Equal(t, models[1].ID, nextModel(models[0].ID))
	assert.Equal(t, models[0].ID, nextModel(models[len(models)-1].ID))
	assert.Equal(t, models[0].ID, nextModel("unknown"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a.png"), expandHome("~/a.png"))
	assert.Equal(t, "/abs/a.png", expandHome("/abs/a.png"))
}
