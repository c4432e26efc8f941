// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode chat for
// olympus.
//
// # Key Types
//
//   - Command: the top-level command (tui, chat, init, version, help)
//   - Args: parsed global flags
//   - ArgParser: flag and positional splitting, shared by process
//     arguments and slash commands
//   - ChatREPL: the line-mode chat over a session.Manager
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    err = cli.RunChat(ctx, mgr, cli.ChatOptions{Attacher: att, Markdown: true})
//	}
//	os.Exit(cli.GetExitCode(err))
//
// Output is colored only on a terminal; NO_COLOR, FORCE_COLOR and
// --no-color override detection.
package cli
