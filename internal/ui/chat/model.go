// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/components"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// errNoUploads is reported when attaching without an uploader configured.
var errNoUploads = errors.New("file uploads are not available")

// =============================================================================
// FOCUS
// =============================================================================

// focus is the area receiving keystrokes.
type focus int

const (
	focusComposer focus = iota
	focusSidebar
	focusPathPrompt
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat screen.
type Options struct {
	Context  context.Context
	Theme    *styles.Theme
	UI       config.UIConfig
	Attacher *files.Attacher
	Logger   logrus.FieldLogger
}

// Model is the Bubble Tea model for the chat screen. It owns no
// conversation state: everything it shows comes from the manager's
// Snapshot, re-read whenever the manager signals a change.
type Model struct {
	ctx      context.Context
	mgr      *session.Manager
	attacher *files.Attacher
	log      logrus.FieldLogger

	changes     <-chan struct{}
	unsubscribe func()
	snap        session.Snapshot

	// Styling
	theme    *styles.Theme
	ui       config.UIConfig
	keys     KeyMap
	renderer *components.MessageRenderer
	strip    components.FileStrip
	rendered map[string]string // message id -> rendered bubble

	// Widgets
	composer   textarea.Model
	pathPrompt textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model

	// UI state
	focus         focus
	cursor        int    // sidebar row
	notice        string // transient feedback not carried by the snapshot
	confirmDelete string // conversation id awaiting a second ctrl+d

	// Dimensions
	width  int
	height int
	ready  bool
}

// New creates the chat screen bound to mgr. Call Close when the program
// exits to release the manager subscription.
func New(mgr *session.Manager, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(opts.UI.Theme)
	}
	if opts.UI.SidebarWidth <= 0 {
		opts.UI.SidebarWidth = 30
	}

	ta := textarea.New()
	ta.Placeholder = "Message... (enter to send, alt+enter for a newline)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.KeyMap.DeleteCharacterForward.SetKeys("delete")
	ta.KeyMap.Paste.SetEnabled(false)
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "path: "
	ti.Placeholder = "~/Pictures/photo.jpg"

	sp := spinner.New(
		spinner.WithSpinner(styles.DotsSpinner.Bubble()),
		spinner.WithStyle(theme.Spinner),
	)

	changes, unsubscribe := mgr.Subscribe()

	return Model{
		ctx:         ctx,
		mgr:         mgr,
		attacher:    opts.Attacher,
		log:         logging.OrDiscard(opts.Logger),
		changes:     changes,
		unsubscribe: unsubscribe,
		snap:        mgr.Snapshot(),
		theme:       theme,
		ui:          opts.UI,
		keys:        DefaultKeyMap(),
		renderer:    components.NewMessageRenderer(theme, opts.UI.Markdown, opts.UI.ShowStats),
		strip:       components.NewFileStrip(),
		rendered:    make(map[string]string),
		composer:    ta,
		pathPrompt:  ti,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
	}
}

// Close releases the manager subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads the conversation list and starts listening for changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForChange(),
		m.listCmd(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case stateChangedMsg:
		m.snap = m.mgr.Snapshot()
		m.syncCursor()
		m.refresh()
		return m, m.waitForChange()

	case opDoneMsg:
		return relayout(m.handleOpDone(msg))

	case FileDroppedMsg:
		m.notice = "Attaching " + msg.Path
		m.refresh()
		return m, m.attachCmd(msg.Path)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snap.IsStreaming || m.snap.IsLoading {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		return relayout(m.handleKey(msg))
	}

	return m.updateFocused(msg)
}

// relayout refreshes after handlers that may have changed the height of
// the bottom area (notices, prompts).
func relayout(next tea.Model, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m, ok := next.(Model); ok {
		m.refresh()
		return m, cmd
	}
	return next, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.ready = true

	m.composer.SetWidth(max(m.threadWidth()-2, 10))
	m.pathPrompt.Width = max(m.threadWidth()-12, 10)
	m.renderer.SetWidth(m.threadWidth())
	clear(m.rendered)

	m.refresh()
	return m, nil
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil || errors.Is(msg.err, context.Canceled) {
		if msg.op == opAttach || msg.op == opPaste {
			m.notice = ""
		}
		return m, nil
	}

	// Network failures land in the snapshot and render there. Everything
	// else (validation, rejected files, clipboard) would vanish silently.
	var netErr *session.NetworkError
	if errors.As(msg.err, &netErr) {
		return m, nil
	}
	m.notice = components.ErrorText(msg.err)
	m.log.WithError(msg.err).WithField("op", msg.op).Debug("operation rejected")
	return m, nil
}

// updateFocused forwards non-key messages (cursor blink, mouse) to the
// focused widget.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusPathPrompt:
		m.pathPrompt, cmd = m.pathPrompt.Update(msg)
	case focusComposer:
		m.composer, cmd = m.composer.Update(msg)
	}
	return m, cmd
}

// syncCursor keeps the sidebar cursor valid. While the sidebar is not
// focused the cursor follows the open conversation.
func (m *Model) syncCursor() {
	n := len(m.snap.Conversations)
	if m.focus != focusSidebar {
		for i, c := range m.snap.Conversations {
			if c.ID == m.snap.CurrentID() {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Snapshot returns the session state the view last rendered.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

// Notice returns the transient feedback line.
func (m Model) Notice() string {
	return m.notice
}

// ComposerValue returns the text typed so far.
func (m Model) ComposerValue() string {
	return m.composer.Value()
}
