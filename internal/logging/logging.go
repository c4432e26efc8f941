// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logrus logger shared by olympus components.
//
// The TUI owns the terminal, so logs go to a file (or are discarded);
// only the mock server logs to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/config"
)

// New returns a logger configured from cfg. When cfg.File is empty, output
// goes to fallback; a nil fallback discards everything. The returned closer
// releases the log file and is never nil.
func New(cfg config.LogConfig, fallback io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			DisableColors:    cfg.File != "",
			QuoteEmptyFields: true,
		})
	}

	if cfg.File == "" {
		if fallback == nil {
			fallback = io.Discard
		}
		log.SetOutput(fallback)
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

// Discard returns a logger that drops everything. Components use it when
// the caller supplies no logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
