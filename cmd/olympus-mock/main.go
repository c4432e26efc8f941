// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main runs olympus-mock, a local chat server backed by SQLite.
// It speaks the same REST and WebSocket protocol the client expects, so
// olympus can be pointed at it for development and demos.
//
// Usage:
//
//	olympus-mock [--addr HOST:PORT] [--db PATH] [--blobs DIR] [--token TOKEN] [--no-stream]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/cli"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/server"
	"github.com/jeranaias/olympus-tui/internal/storage"
)

const usage = `olympus-mock - local chat server for olympus

Usage: olympus-mock [OPTIONS]

Options:
  --addr HOST:PORT   Listen address (default 127.0.0.1:8000)
  --db PATH          SQLite database (default ~/.olympus/mock.db, ":memory:" for none)
  --blobs DIR        Upload directory (default ~/.olympus/mock-blobs)
  --token TOKEN      Require this bearer token
  --rate N           Requests per second per client (default 20)
  --no-stream        Return replies in the send response instead of streaming
  --no-seed          Start with an empty database
  --verbose, -v      Debug logging
  --help, -h         Show this help`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "olympus-mock:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(argv []string) error {
	args := cli.NewArgParser(argv, "no-stream", "no-seed", "verbose", "v", "help", "h")
	if args.BoolFlag("help") || args.BoolFlag("h") {
		fmt.Println(usage)
		return nil
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if args.BoolFlag("verbose") || args.BoolFlag("v") {
		log.SetLevel(logrus.DebugLevel)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	defaults := config.Default()
	lcfg := defaults.Local
	lcfg.DBPath = args.FlagOrDefault("db", filepath.Join(dir, "mock.db"))
	lcfg.BlobDir = args.FlagOrDefault("blobs", filepath.Join(dir, "mock-blobs"))
	lcfg.SeedDemo = !args.BoolFlag("no-seed")
	lcfg.Stream = !args.BoolFlag("no-stream")

	addr := args.FlagOrDefault("addr", server.DefaultAddr)
	perSecond := 20
	if raw := args.Flag("rate"); raw != "" {
		if perSecond, err = cli.ParseIntWithValidation(raw, "rate"); err != nil {
			return err
		}
	}

	policy := files.NewPolicy(defaults.Files)
	store, err := storage.Open(lcfg,
		storage.WithPolicy(policy),
		storage.WithFileBaseURL("http://"+addr),
		storage.WithLogger(log.WithField("component", "storage")),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.NewServer(addr, store,
		server.WithUploader(store),
		server.WithFileStore(store),
		server.WithEvents(func() backend.StreamSource { return store.Hub().Subscribe() }),
		server.WithPolicy(policy),
		server.WithToken(args.Flag("token")),
		server.WithRateLimiter(server.NewRateLimiter(float64(perSecond), perSecond*2)),
		server.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
