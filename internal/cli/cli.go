// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command line parsing for olympus.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdInit
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdInit:
		return "init"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	Demo       bool   // use the local SQLite backend
	ConfigPath string // config file, default ~/.olympus/config.toml
	Model      string // model preference override
	Verbose    bool   // debug logging
	NoColor    bool
	Force      bool // init: overwrite an existing config

	// Raw args after the command name.
	Raw []string
}

// boolFlags never take a value.
var boolFlags = []string{"demo", "verbose", "v", "no-color", "force", "help", "h", "version"}

const usageText = `olympus - multimodal chat in the terminal

Usage:
  olympus [command] [flags]

Commands:
  tui        Full-screen chat (default)
  chat       Line-mode chat with slash commands
  init       Write a default config file (--force overwrites)
  version    Show version information
  help       Show this help

Flags:
  --demo              Use the built-in demo backend instead of the API
  --config PATH       Config file (default ~/.olympus/config.toml)
  -m, --model NAME    Model preference (auto, gpt-4o, claude-3-5-sonnet, ...)
  -v, --verbose       Debug logging
  --no-color          Disable colors

Environment:
  OLYMPUS_API_BASE_URL, OLYMPUS_API_TOKEN, OLYMPUS_LOCAL_ENABLED and the
  rest of the config keys can be set as OLYMPUS_<SECTION>_<KEY>.

Examples:
  olympus --demo
  olympus chat --model gpt-4o
  olympus --config ./team.toml
`

// UsageError reports a malformed command line.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason + " (see olympus help)"
}

// Parse parses process arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)
	args := Args{
		Demo:       p.BoolFlag("demo"),
		ConfigPath: p.Flag("config"),
		Model:      p.FlagOrDefault("model", p.Flag("m")),
		Verbose:    p.BoolFlag("verbose") || p.BoolFlag("v"),
		NoColor:    p.BoolFlag("no-color"),
		Force:      p.BoolFlag("force"),
		Raw:        p.PositionalFrom(1),
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}
	for _, name := range []string{"config", "model", "m"} {
		if p.BoolFlag(name) {
			return CmdHelp, args, &UsageError{Reason: "--" + strings.TrimLeft(name, "-") + " needs a value"}
		}
	}

	switch strings.ToLower(p.Subcommand()) {
	case "", "tui":
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "init":
		return CmdInit, args, nil
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, &UsageError{Reason: fmt.Sprintf("unknown command %q", p.Subcommand())}
	}
}

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "olympus %s\n", Version)
	fmt.Fprintf(w, "  Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:     %s\n", runtime.Version())
}
