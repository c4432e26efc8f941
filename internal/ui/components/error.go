// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// =============================================================================
// RETRY BANNER
// =============================================================================

// RetryExhaustedText is shown once the failed message can no longer be retried.
const RetryExhaustedText = "Message could not be delivered after several attempts. Copy your text and try again later."

// RetryBanner renders the failed-message banner, or "" when nothing failed.
func RetryBanner(theme *styles.Theme, snap session.Snapshot, width int) string {
	if snap.FailedMessage == nil {
		return ""
	}

	preview := util.TruncateWidth(util.SingleLine(failedPreview(snap)), max(width-40, 12))

	if snap.RetryExhausted() {
		return theme.RetryExhausted.Render(
			styles.StatusIndicators.Error + " " + RetryExhaustedText + "\n" +
				fmt.Sprintf("%q  ", preview) + shortcut(theme, "x", "dismiss"),
		)
	}

	status := fmt.Sprintf("%s Failed to send %q (attempt %d of %d)",
		styles.StatusIndicators.Warning, preview, snap.RetryCount+1, snap.MaxRetries+1)
	if snap.IsSending {
		status = fmt.Sprintf("%s Retrying %q...", styles.StatusIndicators.Pending, preview)
	}
	return theme.RetryBanner.Render(
		status + "\n" + shortcut(theme, "r", "retry") + "  " + shortcut(theme, "x", "dismiss"),
	)
}

func failedPreview(snap session.Snapshot) string {
	var parts []string
	for _, p := range snap.FailedMessage.Content {
		parts = append(parts, p.Label())
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// ERROR LINE
// =============================================================================

// ErrorLine renders the session error, or "" when there is none. A send
// failure is already covered by the retry banner and is not repeated.
func ErrorLine(theme *styles.Theme, snap session.Snapshot, width int) string {
	if snap.Error == nil || snap.FailedMessage != nil {
		return ""
	}
	msg := ErrorText(snap.Error)
	return theme.ErrorBanner.Render(
		util.TruncateWidth(styles.StatusIndicators.Error+" "+msg, max(width-2, 10)),
	)
}

// ErrorText maps session errors to short user-facing text.
func ErrorText(err error) string {
	var netErr *session.NetworkError
	switch {
	case errors.Is(err, session.ErrRetryExhausted):
		return RetryExhaustedText
	case errors.Is(err, session.ErrEmptyMessage):
		return "Type a message or attach a ready file first."
	case errors.Is(err, session.ErrSendInFlight):
		return "Wait for the current message to finish sending."
	case errors.Is(err, session.ErrFailedPending):
		return "Retry (r) or dismiss (x) the failed message first."
	case errors.As(err, &netErr):
		return netErr.Error()
	default:
		return err.Error()
	}
}
