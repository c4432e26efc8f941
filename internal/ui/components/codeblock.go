// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

const fence = "```"

// HighlightCode applies syntax highlighting to code. Unknown languages are
// guessed from the content; on any failure the code is returned unchanged.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// HighlightFences highlights every fenced code block in text and leaves
// prose untouched. Used when markdown rendering is turned off.
func HighlightFences(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	var code []string
	var language string
	inBlock := false

	flush := func() {
		result = append(result, HighlightCode(strings.Join(code, "\n"), language))
		code = nil
		language = ""
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), fence) && inBlock:
			flush()
			inBlock = false
		case strings.HasPrefix(strings.TrimSpace(line), fence):
			language = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fence))
			inBlock = true
		case inBlock:
			code = append(code, line)
		default:
			result = append(result, line)
		}
	}

	// Unclosed block, typically mid-stream.
	if inBlock && len(code) > 0 {
		flush()
	}
	return strings.Join(result, "\n")
}
