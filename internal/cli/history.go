// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/olympus-tui/internal/config"
)

// LineReader reads one line of input. Implementations return io.EOF when
// input ends and ErrInterrupted when the user aborts the prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ErrInterrupted is returned by LineReader when the prompt is aborted.
var ErrInterrupted = errors.New("interrupted")

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent history for the chat
// prompt. Arrow keys walk the history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetCompleter(completeCommand)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line, recording non-empty input in the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrInterrupted
	case err != nil:
		return "", io.EOF
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// completeCommand completes slash command names.
func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, cmd := range chatCommands {
		if strings.HasPrefix(cmd.name, line) {
			out = append(out, cmd.name)
		}
	}
	return out
}
