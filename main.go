// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for olympus, a terminal client for
// multimodal chat conversations.
//
// Usage:
//
//	olympus              Full-screen chat
//	olympus chat         Line-mode chat with history and completion
//	olympus init         Write a default config file
//	olympus --demo       Use the built-in local backend
//	olympus version      Show version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/backend/httpapi"
	"github.com/jeranaias/olympus-tui/internal/cli"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/storage"
	"github.com/jeranaias/olympus-tui/internal/ui/chat"
)

// Version information (set at build time via -ldflags).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

// dropDebounce is how long a dropped file must be quiet before it is
// attached.
const dropDebounce = 500 * time.Millisecond

// =============================================================================
// PROGRAM REFERENCE
// =============================================================================

// programRef lets background goroutines send messages into the running
// Bubble Tea program.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func setProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// MAIN
// =============================================================================

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		cli.PrintUsage(os.Stderr)
		os.Exit(cli.GetExitCode(err))
	}

	if args.NoColor {
		cli.ForceColorsEnabled(false)
	}
	cli.ApplyColorProfile()

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return
	case cli.CmdInit:
		if err := cli.InitConfig(os.Stdout, args.ConfigPath, args.Force); err != nil {
			cli.DisplayError(os.Stderr, err)
			os.Exit(cli.GetExitCode(err))
		}
		return
	}

	if err := run(cmd, args); err != nil {
		cli.DisplayError(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

// run wires the session stack and hands it to the selected front end.
func run(cmd cli.Command, args cli.Args) error {
	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return err
	}
	if args.Demo {
		cfg.Local.Enabled = true
	}
	if args.Model != "" {
		cfg.API.ModelPreference = args.Model
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}

	// Full-screen mode owns the terminal, so logs only go to the file.
	var fallback io.Writer = os.Stderr
	if cmd == cli.CmdTUI {
		fallback = nil
	}
	log, logCloser, err := logging.New(cfg.Log, fallback)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	st, err := newStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	log.WithFields(logrus.Fields{
		"version": Version,
		"local":   cfg.Local.Enabled,
		"model":   cfg.API.ModelPreference,
	}).Info("olympus starting")

	switch cmd {
	case cli.CmdChat:
		return cli.RunChat(ctx, st.mgr, cli.ChatOptions{
			Attacher:     st.attacher,
			Markdown:     cfg.UI.Markdown,
			ReplyTimeout: cfg.API.Timeout * 4,
			Logger:       log,
		})
	default:
		return runTUI(ctx, cfg, st, log)
	}
}

// =============================================================================
// SESSION STACK
// =============================================================================

// stack bundles the backend, its event stream and the session manager.
type stack struct {
	mgr      *session.Manager
	attacher *files.Attacher
	events   backend.StreamSource
	closers  []io.Closer
}

// newStack picks the local or remote backend and starts consuming its
// events.
func newStack(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stack, error) {
	policy := files.NewPolicy(cfg.Files)
	s := &stack{}

	var (
		b         backend.Backend
		uploader  backend.Uploader
		streaming bool
	)
	if cfg.Local.Enabled {
		store, err := storage.Open(cfg.Local,
			storage.WithPolicy(policy),
			storage.WithLogger(log.WithField("component", "storage")),
		)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		s.closers = append(s.closers, store)
		b, uploader = store, store
		streaming = cfg.Local.Stream
		if streaming {
			s.events = store.Hub().Subscribe()
		}
	} else {
		client := httpapi.NewClient(cfg.API,
			httpapi.WithLogger(log.WithField("component", "api")),
			httpapi.WithPolicy(policy),
		)
		b, uploader = client, client
		streaming = cfg.API.Stream
		if streaming {
			s.events = httpapi.DialStream(ctx, cfg.API,
				httpapi.WithStreamLogger(log.WithField("component", "stream")),
			)
		}
	}

	s.mgr = session.NewManager(b,
		session.WithLogger(log.WithField("component", "session")),
		session.WithPolicy(policy),
		session.WithMaxRetries(cfg.Session.MaxRetries),
		session.WithModelPreference(cfg.API.ModelPreference),
		session.WithStreamingReplies(streaming),
	)
	if s.events != nil {
		go s.mgr.Consume(ctx, s.events)
	}

	s.attacher = files.NewAttacher(s.mgr, uploader,
		files.WithProgressRate(cfg.Files.ProgressPerSecond),
		files.WithConcurrency(cfg.Files.Concurrency),
		files.WithLogger(log.WithField("component", "files")),
	)
	return s, nil
}

// Close stops the event stream and releases the backend.
func (s *stack) Close() {
	if s.events != nil {
		s.events.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

// =============================================================================
// FULL-SCREEN MODE
// =============================================================================

func runTUI(ctx context.Context, cfg *config.Config, s *stack, log *logrus.Logger) error {
	if !cli.IsTTY() {
		return errors.New("full-screen mode needs an interactive terminal; use 'olympus chat' instead")
	}

	m := chat.New(s.mgr, chat.Options{
		Context:  ctx,
		UI:       cfg.UI,
		Attacher: s.attacher,
		Logger:   log.WithField("component", "ui"),
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	setProgram(p)
	defer setProgram(nil)

	if cfg.Files.DropDir != "" {
		dw, err := files.NewDropWatcher(cfg.Files.DropDir, dropDebounce, func(path string) {
			sendToProgram(chat.FileDroppedMsg{Path: path})
		}, log.WithField("component", "dropwatch"))
		if err == nil {
			defer dw.Close()
			err = dw.Start()
		}
		if err != nil {
			log.WithError(err).Warn("drop folder disabled")
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
