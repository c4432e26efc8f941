// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files handles attachments on the client side: the type and size
// policy, content sniffing, upload driving with throttled progress, and the
// terminal stand-ins for drag-and-drop (a watched drop folder) and paste
// (a file path on the clipboard).
//
// # Key Types
//
//   - Policy: allow-list and size limit (100 MiB by default)
//   - Descriptor: a local file described before upload
//   - Attacher: describe, register, upload, report; many files in parallel
//   - DropWatcher: fsnotify watcher delivering settled files
package files
