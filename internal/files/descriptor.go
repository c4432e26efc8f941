// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/gabriel-vasile/mimetype"
)

// Descriptor is what the client knows about a local file before upload.
type Descriptor struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// textRefinements maps extensions whose content sniffs as text/plain to
// a more specific type.
var textRefinements = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
}

// Describe stats path and sniffs its content type from the first bytes.
func Describe(path string) (Descriptor, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Descriptor{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("detect type of %s: %w", path, err)
	}

	ct := normalizeType(mt.String())
	if ct == "text/plain" {
		if refined, ok := textRefinements[strings.ToLower(filepath.Ext(path))]; ok {
			ct = refined
		}
	}

	return Descriptor{
		Path:        path,
		Filename:    filepath.Base(path),
		ContentType: ct,
		Size:        info.Size(),
	}, nil
}

// LanguageLabel names the source language of a text attachment, for
// display next to the filename. Empty when unknown.
func LanguageLabel(filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}
