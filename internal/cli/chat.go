// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for olympus.
//
// Command: chat
// Short:   Chat from a plain prompt instead of the full-screen UI
//
// Interactive Commands:
//   /help               Show available commands
//   /list               List conversations
//   /open N             Open conversation N from the list
//   /new [title]        Start a new conversation
//   /attach PATH        Attach a file to the next message
//   /paste              Attach the file path on the clipboard
//   /files              Show pending attachments
//   /drop N             Remove pending attachment N
//   /retry, /dismiss    Resolve a failed message
//   /delete [N]         Delete a conversation (asks first)
//   /model [name]       Show or change the model preference
//   /quit               Exit
//
// Anything else is sent as a message. Ctrl+C while waiting for a reply
// stops waiting; Ctrl+C or Ctrl+D at the prompt exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/components"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// errReplyTimeout is returned when a streamed reply stalls.
var errReplyTimeout = errors.New("timed out waiting for the reply")

// =============================================================================
// COMMAND TABLE
// =============================================================================

type chatCommand struct {
	name  string
	usage string
	desc  string
}

var chatCommands = []chatCommand{
	{"/help", "/help", "Show this help"},
	{"/list", "/list", "List conversations"},
	{"/open", "/open N", "Open conversation N"},
	{"/new", "/new [title]", "Start a new conversation"},
	{"/history", "/history", "Show the open conversation"},
	{"/attach", "/attach PATH", "Attach a file to the next message"},
	{"/paste", "/paste", "Attach the file path on the clipboard"},
	{"/files", "/files", "Show pending attachments"},
	{"/drop", "/drop N", "Remove pending attachment N"},
	{"/retry", "/retry", "Resend the failed message"},
	{"/dismiss", "/dismiss", "Discard the failed message"},
	{"/delete", "/delete [N]", "Delete a conversation"},
	{"/model", "/model [name]", "Show or change the model"},
	{"/status", "/status", "Show session state"},
	{"/quit", "/quit", "Exit"},
}

// =============================================================================
// CHAT REPL
// =============================================================================

// ChatOptions configures a ChatREPL.
type ChatOptions struct {
	Attacher *files.Attacher
	Out      io.Writer
	Markdown bool // render replies with glamour
	Width    int  // wrap width, 0 for the terminal width
	Quiet    bool // no welcome banner

	// ReplyTimeout bounds the wait for a streamed reply.
	ReplyTimeout time.Duration
	Logger       logrus.FieldLogger
}

// ChatREPL is the line-mode front end over a session.Manager.
type ChatREPL struct {
	mgr      *session.Manager
	attacher *files.Attacher
	in       LineReader
	out      io.Writer
	md       *glamour.TermRenderer
	quiet    bool
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewChatREPL creates a REPL reading from in.
func NewChatREPL(mgr *session.Manager, in LineReader, opts ChatOptions) *ChatREPL {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	timeout := opts.ReplyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	r := &ChatREPL{
		mgr:      mgr,
		attacher: opts.Attacher,
		in:       in,
		out:      out,
		quiet:    opts.Quiet,
		timeout:  timeout,
		log:      logging.OrDiscard(opts.Logger),
	}
	if opts.Markdown {
		width := opts.Width
		if width <= 0 {
			width = GetTerminalWidth()
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-4),
		)
		if err != nil {
			r.log.WithError(err).Warn("markdown renderer unavailable, printing plain text")
		} else {
			r.md = md
		}
	}
	return r
}

// RunChat runs the line-mode chat on the terminal until the user quits.
func RunChat(ctx context.Context, mgr *session.Manager, opts ChatOptions) error {
	if !IsTTY() {
		return &UsageError{Reason: "chat needs an interactive terminal"}
	}
	input := NewChatCLI()
	defer input.Close()

	opts.Markdown = opts.Markdown && ColorsEnabled()
	return NewChatREPL(mgr, input, opts).Run(ctx)
}

// Run loads the conversation list and processes input until /quit or EOF.
func (r *ChatREPL) Run(ctx context.Context) error {
	if err := r.mgr.ListConversations(ctx); err != nil {
		DisplayError(r.out, err)
	}
	if !r.quiet {
		r.printWelcome()
	}

	for {
		line, err := r.in.Prompt(r.prompt())
		if err != nil {
			fmt.Fprintln(r.out)
			if errors.Is(err, ErrInterrupted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		more, err := r.Execute(ctx, line)
		if err != nil {
			DisplayError(r.out, err)
		}
		if !more {
			return nil
		}
	}
}

// prompt shows the open conversation and pending file count.
func (r *ChatREPL) prompt() string {
	snap := r.mgr.Snapshot()
	label := "new"
	if snap.Current != nil {
		label = util.TruncateWidth(snap.Current.DisplayTitle(), 20)
	}
	if n := len(snap.PendingFiles); n > 0 {
		label += fmt.Sprintf(" +%d", n)
	}
	if snap.FailedMessage != nil {
		label += " !"
	}
	return PromptStyle.Render("olympus (" + label + ")> ")
}

// Execute handles one line of input. It returns false when the session
// should end.
func (r *ChatREPL) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, nil
	}
	if !strings.HasPrefix(line, "/") {
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return false, nil
		}
		return true, r.send(ctx, line)
	}

	args := NewArgParser(strings.Fields(line))
	switch strings.ToLower(args.Subcommand()) {
	case "/help", "/h", "/?", "/":
		r.printHelp()
	case "/list", "/ls":
		return true, r.list(ctx)
	case "/open", "/o":
		return true, r.open(ctx, args.Positional(1))
	case "/new", "/n":
		return true, r.newConversation(ctx, JoinPositionalArgs(args, 1))
	case "/history":
		r.printHistory()
	case "/attach", "/a":
		// Paths may contain spaces; take the rest of the line verbatim.
		return true, r.attach(ctx, strings.TrimSpace(strings.TrimPrefix(line, args.Subcommand())))
	case "/paste":
		return true, r.paste(ctx)
	case "/files", "/f":
		r.printFiles()
	case "/drop":
		return true, r.drop(args.Positional(1))
	case "/retry", "/r":
		return true, r.retry(ctx)
	case "/dismiss":
		r.mgr.ClearFailedMessage()
		fmt.Fprintln(r.out, DimStyle.Render("Failed message discarded."))
	case "/delete", "/rm":
		return true, r.delete(ctx, args.Positional(1))
	case "/model", "/m":
		return true, r.setModel(args.Positional(1))
	case "/models":
		r.printModels()
	case "/status", "/s":
		r.printStatus()
	case "/quit", "/q", "/exit":
		return false, nil
	default:
		return true, fmt.Errorf("unknown command %s (type /help for commands)", args.Subcommand())
	}
	return true, nil
}

// =============================================================================
// MESSAGING
// =============================================================================

func (r *ChatREPL) send(ctx context.Context, text string) error {
	if err := r.refuseSend(); err != nil {
		return err
	}
	return r.withReply(ctx, func(ctx context.Context) error {
		return r.mgr.SendMessage(ctx, []model.ContentPart{model.TextPart(text)})
	})
}

// refuseSend explains why a send would be rejected without losing the
// text to a generic error.
func (r *ChatREPL) refuseSend() error {
	snap := r.mgr.Snapshot()
	if snap.FailedMessage != nil {
		return errors.New(components.ErrorText(session.ErrFailedPending))
	}
	for _, f := range snap.PendingFiles {
		if !f.Status.IsTerminal() {
			return errors.New("attachments are still uploading; check /files")
		}
	}
	return nil
}

func (r *ChatREPL) retry(ctx context.Context) error {
	err := r.withReply(ctx, r.mgr.RetryLastMessage)
	if errors.Is(err, session.ErrRetryExhausted) {
		return errors.New(components.RetryExhaustedText)
	}
	return err
}

// withReply runs op, then waits for and prints the assistant reply.
// Ctrl+C stops waiting without cancelling the send.
func (r *ChatREPL) withReply(ctx context.Context, op func(context.Context) error) error {
	changes, unsubscribe := r.mgr.Subscribe()
	defer unsubscribe()

	before := len(r.mgr.Snapshot().Messages)
	if err := op(ctx); err != nil {
		var netErr *session.NetworkError
		if errors.As(err, &netErr) {
			fmt.Fprintln(r.out, failedHint(r.mgr.Snapshot()))
		}
		return err
	}

	waitCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	streamed, err := r.awaitReply(waitCtx, changes)
	if err != nil {
		if streamed > 0 {
			fmt.Fprintln(r.out)
		}
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			fmt.Fprintln(r.out, DimStyle.Render("[Stopped waiting; the reply will appear in /history]"))
			return nil
		}
		return err
	}

	snap := r.mgr.Snapshot()
	if snap.Error != nil {
		if streamed > 0 {
			fmt.Fprintln(r.out)
		}
		return snap.Error
	}
	for _, msg := range snap.Messages[min(before, len(snap.Messages)):] {
		if msg.Role != model.RoleAssistant {
			continue
		}
		if streamed > 0 {
			// The text is already on screen.
			fmt.Fprintln(r.out)
			r.printStats(msg)
			continue
		}
		r.printMessage(msg)
	}
	return nil
}

// awaitReply prints streamed text as it arrives and returns once the
// manager stops streaming. It returns how many bytes were printed.
func (r *ChatREPL) awaitReply(ctx context.Context, changes <-chan struct{}) (int, error) {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	printed := 0
	for {
		snap := r.mgr.Snapshot()
		if len(snap.StreamingContent) > printed {
			if printed == 0 {
				fmt.Fprintln(r.out, AssistantLabelStyle.Render("Assistant"))
			}
			fmt.Fprint(r.out, snap.StreamingContent[printed:])
			printed = len(snap.StreamingContent)
			timer.Reset(r.timeout)
		}
		if !snap.IsStreaming {
			return printed, nil
		}

		select {
		case <-changes:
		case <-ctx.Done():
			return printed, ctx.Err()
		case <-timer.C:
			return printed, errReplyTimeout
		}
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (r *ChatREPL) list(ctx context.Context) error {
	if err := r.mgr.ListConversations(ctx); err != nil {
		return err
	}
	r.printConversations()
	return nil
}

// conversationAt resolves a 1-based index into the last listed order.
func (r *ChatREPL) conversationAt(arg string) (model.Conversation, error) {
	n, err := ParseIntWithValidation(arg, "conversation number")
	if err != nil {
		return model.Conversation{}, err
	}
	convs := r.mgr.Snapshot().Conversations
	if n > len(convs) {
		return model.Conversation{}, fmt.Errorf("no conversation %d (there are %d; see /list)", n, len(convs))
	}
	return convs[n-1], nil
}

func (r *ChatREPL) open(ctx context.Context, arg string) error {
	conv, err := r.conversationAt(arg)
	if err != nil {
		return err
	}
	if err := r.mgr.SelectConversation(ctx, conv.ID); err != nil {
		return err
	}
	r.printHistory()
	return nil
}

// newConversation clears the selection; with a title it creates the
// conversation right away, otherwise the first message creates it.
func (r *ChatREPL) newConversation(ctx context.Context, title string) error {
	if title == "" {
		r.mgr.ClearCurrentConversation()
		fmt.Fprintln(r.out, DimStyle.Render("New conversation. Your first message starts it."))
		return nil
	}
	conv, err := r.mgr.CreateConversation(ctx, title)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, CommandStyle.Render("Created "+conv.DisplayTitle()))
	return nil
}

func (r *ChatREPL) delete(ctx context.Context, arg string) error {
	var target model.Conversation
	if arg == "" {
		cur := r.mgr.Snapshot().Current
		if cur == nil {
			return errors.New("no conversation open; use /delete N")
		}
		target = *cur
	} else {
		conv, err := r.conversationAt(arg)
		if err != nil {
			return err
		}
		target = conv
	}

	answer, err := r.in.Prompt(fmt.Sprintf("Delete %q? [y/N] ", target.DisplayTitle()))
	if err != nil {
		return nil
	}
	if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
		fmt.Fprintln(r.out, DimStyle.Render("Cancelled."))
		return nil
	}
	if err := r.mgr.DeleteConversation(ctx, target.ID); err != nil {
		return err
	}
	fmt.Fprintln(r.out, CommandStyle.Render("Deleted "+target.DisplayTitle()))
	return nil
}

func (r *ChatREPL) setModel(name string) error {
	if name == "" {
		fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Model:"), CommandStyle.Render(r.mgr.ModelPreference()))
		return nil
	}
	info, ok := model.LookupModel(name)
	if !ok {
		return fmt.Errorf("unknown model %q (see /models)", name)
	}
	r.mgr.SetModelPreference(info.ID)
	fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Model:"), CommandStyle.Render(info.Name))
	return nil
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func (r *ChatREPL) attach(ctx context.Context, path string) error {
	if r.attacher == nil {
		return errors.New("file uploads are not available")
	}
	if path == "" {
		return errors.New("usage: /attach PATH")
	}
	path = expandHome(strings.Trim(path, `"'`))
	if err := r.attacher.Attach(ctx, path); err != nil {
		return err
	}
	r.printFiles()
	return nil
}

func (r *ChatREPL) paste(ctx context.Context) error {
	path, err := files.PastePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, DimStyle.Render("Attaching "+path))
	return r.attach(ctx, path)
}

func (r *ChatREPL) drop(arg string) error {
	n, err := ParseIntWithValidation(arg, "file number")
	if err != nil {
		return err
	}
	pending := r.mgr.Snapshot().PendingFiles
	if n > len(pending) {
		return fmt.Errorf("no pending file %d (see /files)", n)
	}
	f := pending[n-1]
	r.mgr.RemovePendingFile(f.ID)
	fmt.Fprintln(r.out, DimStyle.Render("Removed "+f.Filename))
	return nil
}

// expandHome resolves a leading ~/ against the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
