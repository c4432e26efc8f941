// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across olympus.
//
// # Key Functions
//
// Text:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth, PadRight: terminal-cell aware layout
//   - NormalizeText, SingleLine: composer and preview cleanup
//
// Files:
//   - AtomicWriteFile: crash-safe writes for config and history
package util
