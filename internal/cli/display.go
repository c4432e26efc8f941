// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// fileBarWidth is the width of upload progress bars in /files.
const fileBarWidth = 20

// =============================================================================
// MESSAGES
// =============================================================================

// renderMarkdown renders content with glamour, or returns it unchanged
// when markdown is off or rendering fails.
func (r *ChatREPL) renderMarkdown(content string) string {
	if r.md == nil {
		return content
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (r *ChatREPL) printMessage(msg *model.Message) {
	label := UserLabelStyle.Render("You")
	if msg.Role == model.RoleAssistant {
		label = AssistantLabelStyle.Render("Assistant")
	}
	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = " " + DimStyle.Render(msg.CreatedAt.Local().Format("15:04"))
	}
	fmt.Fprintln(r.out, label+stamp)

	if text := msg.Text(); text != "" {
		if msg.Role == model.RoleAssistant {
			text = r.renderMarkdown(text)
		}
		fmt.Fprintln(r.out, text)
	}
	for _, part := range msg.Attachments() {
		fmt.Fprintln(r.out, "  "+CommandStyle.Render(part.Label()))
		if part.Transcription != "" {
			fmt.Fprintln(r.out, "  "+DimStyle.Render(util.TruncateRunes(util.SingleLine(part.Transcription), 120)))
		}
	}
	r.printStats(msg)
}

func (r *ChatREPL) printStats(msg *model.Message) {
	if stats := msg.FormatStats(); stats != "" {
		fmt.Fprintln(r.out, DimStyle.Render("  "+stats))
	}
}

func (r *ChatREPL) printHistory() {
	snap := r.mgr.Snapshot()
	if snap.Current == nil {
		fmt.Fprintln(r.out, DimStyle.Render("No conversation open. Type a message to start one, or /list."))
		return
	}
	fmt.Fprintln(r.out, TitleStyle.Render(snap.Current.DisplayTitle()))
	fmt.Fprintln(r.out, RenderSeparator(min(util.StringWidth(snap.Current.DisplayTitle()), 60)))
	if len(snap.Messages) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet."))
		return
	}
	for i, msg := range snap.Messages {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		r.printMessage(msg)
	}
}

// failedHint tells the user how to resolve a failed send.
func failedHint(snap session.Snapshot) string {
	if snap.FailedMessage == nil {
		return ""
	}
	if snap.RetryExhausted() {
		return styles.RenderWarning("No retries left. /dismiss to discard the message.")
	}
	return styles.RenderWarning(fmt.Sprintf("Message not sent. /retry (attempt %d of %d) or /dismiss.",
		snap.RetryCount+2, snap.MaxRetries+1))
}

// =============================================================================
// LISTS
// =============================================================================

func (r *ChatREPL) printConversations() {
	snap := r.mgr.Snapshot()
	if len(snap.Conversations) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No conversations yet."))
		return
	}
	for i, c := range snap.Conversations {
		marker := "  "
		if c.ID == snap.CurrentID() {
			marker = CommandStyle.Render("* ")
		}
		line := fmt.Sprintf("%s%2d. %s", marker, i+1, c.DisplayTitle())
		if c.LastMessagePreview != "" {
			line += "  " + DimStyle.Render(util.TruncateWidth(util.SingleLine(c.LastMessagePreview), 40))
		}
		fmt.Fprintln(r.out, line)
	}
}

func (r *ChatREPL) printFiles() {
	pending := r.mgr.Snapshot().PendingFiles
	if len(pending) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No pending attachments. /attach PATH adds one."))
		return
	}
	for i, f := range pending {
		fmt.Fprintf(r.out, "%2d. %s %s  %s\n", i+1,
			util.PadRight(util.TruncateWidth(f.Filename, 28), 28),
			DimStyle.Render(util.PadRight(files.FormatSize(f.Size), 8)),
			fileState(f))
	}
}

func fileState(f model.PendingFile) string {
	switch f.Status {
	case model.FileReady:
		return styles.RenderSuccess("ready")
	case model.FileError:
		return styles.RenderError(f.Error)
	case model.FileProcessing:
		return styles.RenderProgressBar(fileBarWidth, float64(f.Progress)) + " processing"
	default:
		return styles.RenderProgressBar(fileBarWidth, float64(f.Progress)) + fmt.Sprintf(" %d%%", f.Progress)
	}
}

func (r *ChatREPL) printModels() {
	current := r.mgr.ModelPreference()
	for _, m := range model.SortedModels() {
		marker := "  "
		if m.ID == current {
			marker = CommandStyle.Render("* ")
		}
		fmt.Fprintf(r.out, "%s%s %s\n", marker, util.PadRight(m.ID, 20), DimStyle.Render(m.Name+" ("+m.Provider+")"))
	}
}

// =============================================================================
// BANNERS
// =============================================================================

func (r *ChatREPL) printWelcome() {
	snap := r.mgr.Snapshot()
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("olympus chat"))
	fmt.Fprintln(r.out, RenderSeparator(30))
	fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Model:"), CommandStyle.Render(snap.ModelPreference))
	fmt.Fprintf(r.out, "%s %d\n", LabelStyle.Render("Chats:"), len(snap.Conversations))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, DimStyle.Render("Type a message and press Enter. /help lists commands."))
	fmt.Fprintln(r.out)
}

func (r *ChatREPL) printHelp() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	fmt.Fprintln(r.out, RenderSeparator(20))
	for _, c := range chatCommands {
		fmt.Fprintf(r.out, "  %s  %s\n", CommandStyle.Render(util.PadRight(c.usage, 16)), DimStyle.Render(c.desc))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, DimStyle.Render("Tip: Ctrl+C stops waiting for a reply, Ctrl+D exits"))
	fmt.Fprintln(r.out)
}

func (r *ChatREPL) printStatus() {
	snap := r.mgr.Snapshot()
	title := "(new)"
	if snap.Current != nil {
		title = snap.Current.DisplayTitle()
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("Session"))
	fmt.Fprintln(r.out, RenderSeparator(20))
	fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Chat:"), title)
	fmt.Fprintf(r.out, "%s %d\n", LabelStyle.Render("Messages:"), len(snap.Messages))
	fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Model:"), snap.ModelPreference)
	fmt.Fprintf(r.out, "%s %d pending, %d ready\n", LabelStyle.Render("Files:"), len(snap.PendingFiles), snap.ReadyFiles())
	if snap.FailedMessage != nil {
		fmt.Fprintln(r.out, failedHint(snap))
	}
	if snap.Error != nil {
		fmt.Fprintln(r.out, styles.RenderError(snap.Error.Error()))
	}
	fmt.Fprintln(r.out)
}
