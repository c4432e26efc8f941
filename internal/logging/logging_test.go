// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/olympus-tui/internal/config"
)

func TestNew_JSONToFallback(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.WithField("conversation_id", "conv-1").Debug("selected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "selected", entry["msg"])
	assert.Equal(t, "conv-1", entry["conversation_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	assert.Zero(t, buf.Len())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	log, _, err := New(config.LogConfig{Level: "loud"}, nil)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "olympus.log")
	log, closer, err := New(config.LogConfig{Level: "info", Format: "text", File: path}, nil)
	require.NoError(t, err)

	log.Info("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := logrus.New()
	assert.Same(t, l, OrDiscard(l))
}
