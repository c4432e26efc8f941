// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir so the user's real config and .env
// never leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// =============================================================================
// DEFAULT TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	isolate(t)
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, int64(100*1024*1024), cfg.Files.MaxSizeBytes())
	assert.Equal(t, 3, cfg.Session.MaxRetries)
	assert.Contains(t, cfg.Files.ImageTypes, "image/webp")
}

func TestDefault_ListsAreNotShared(t *testing.T) {
	a := Default()
	a.Files.ImageTypes[0] = "image/x-mutated"
	assert.Equal(t, "image/jpeg", Default().Files.ImageTypes[0])
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := isolate(t)
	cfg, err := Load(filepath.Join(home, "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://chat.example.com"
timeout = "5s"

[files]
max_size_mb = 25
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 25, cfg.Files.MaxSizeMB)
	assert.Equal(t, "ws://localhost:8000/ws/chat", cfg.API.WSURL, "untouched keys keep defaults")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_urll = \"x\"\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_urll")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0600))

	t.Setenv("OLYMPUS_UI_THEME", "dark")
	t.Setenv("OLYMPUS_API_TOKEN", "secret")
	t.Setenv("OLYMPUS_FILES_IMAGE_TYPES", "image/png,image/jpeg")
	t.Setenv("OLYMPUS_LOCAL_STREAM_DELAY", "5ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.Files.ImageTypes)
	assert.Equal(t, 5*time.Millisecond, cfg.Local.StreamDelay)
}

func TestLoad_DotEnvInConfigDir(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".olympus")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OLYMPUS_API_MODEL=gpt-4o\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("OLYMPUS_API_MODEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.API.ModelPreference)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://nope"
	cfg.Files.MaxSizeMB = 0
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, []string{"api.base_url", "files.max_size_mb", "ui.theme"}, fields)
}

func TestValidate_WebSocketScheme(t *testing.T) {
	cfg := Default()
	cfg.API.WSURL = "http://localhost:8000/ws/chat"
	assert.Error(t, cfg.Validate())

	cfg.API.WSURL = ""
	assert.NoError(t, cfg.Validate(), "streaming can be disabled with an empty ws_url")
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSave_RoundTrip(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".olympus", "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "https://chat.example.com"
	cfg.UI.Compact = true
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API, loaded.API)
	assert.True(t, loaded.UI.Compact)
}
