// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the rendering pieces of the olympus chat
screen. Each component is a plain value rendered against a styles.Theme;
state lives in the session manager and reaches components through a
session.Snapshot.

# Display Components

Header (header.go) - Brand, open conversation title and message count.
Sidebar (sidebar.go) - Conversation list with previews and a scrolling cursor.
MessageRenderer (message.go) - Message bubbles; assistant markdown via glamour.
HighlightFences (codeblock.go) - Chroma highlighting when markdown is off.

# Composer Components

FileStrip (progress.go) - Pending attachments with bubbles progress bars.
RetryBanner, ErrorLine (error.go) - Failed message and session error display.
StatusBar (statusbar.go) - Status derived from the snapshot plus key hints.
*/
package components
