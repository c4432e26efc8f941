// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrClipboardEmpty is returned when the clipboard holds no usable path.
var ErrClipboardEmpty = errors.New("clipboard does not contain a file path")

// readClipboard is swapped in tests.
var readClipboard = clipboard.ReadAll

// PastePath returns a local file path copied to the clipboard. File
// managers copy either a plain path or a file:// URL, sometimes quoted.
func PastePath() (string, error) {
	text, err := readClipboard()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	path := ParsePastedPath(text)
	if path == "" {
		return "", ErrClipboardEmpty
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrClipboardEmpty, err)
	}
	return path, nil
}

// ParsePastedPath extracts the first path from pasted text.
func ParsePastedPath(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.Trim(line, `"'`)
	if strings.HasPrefix(line, "file://") {
		u, err := url.Parse(line)
		if err != nil {
			return ""
		}
		return u.Path
	}
	return line
}
