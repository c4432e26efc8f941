// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jeranaias/olympus-tui/internal/util"
)

// EnvPrefix prefixes every environment override, e.g. OLYMPUS_API_BASE_URL.
const EnvPrefix = "OLYMPUS_"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete olympus configuration.
type Config struct {
	API     APIConfig     `toml:"api" envPrefix:"API_"`
	Files   FilesConfig   `toml:"files" envPrefix:"FILES_"`
	Session SessionConfig `toml:"session" envPrefix:"SESSION_"`
	Local   LocalConfig   `toml:"local" envPrefix:"LOCAL_"`
	UI      UIConfig      `toml:"ui" envPrefix:"UI_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// APIConfig points the client at the chat backend.
type APIConfig struct {
	BaseURL         string        `toml:"base_url" env:"BASE_URL"`
	WSURL           string        `toml:"ws_url" env:"WS_URL"`
	Token           string        `toml:"token" env:"TOKEN"`
	Timeout         time.Duration `toml:"timeout" env:"TIMEOUT"`
	Stream          bool          `toml:"stream" env:"STREAM"`
	ModelPreference string        `toml:"model_preference" env:"MODEL"`
}

// FilesConfig controls attachment validation and intake.
type FilesConfig struct {
	MaxSizeMB         int      `toml:"max_size_mb" env:"MAX_SIZE_MB"`
	ImageTypes        []string `toml:"image_types" env:"IMAGE_TYPES"`
	AudioTypes        []string `toml:"audio_types" env:"AUDIO_TYPES"`
	VideoTypes        []string `toml:"video_types" env:"VIDEO_TYPES"`
	DocumentTypes     []string `toml:"document_types" env:"DOCUMENT_TYPES"`
	DropDir           string   `toml:"drop_dir" env:"DROP_DIR"`
	ProgressPerSecond float64  `toml:"progress_per_second" env:"PROGRESS_PER_SECOND"`
	Concurrency       int      `toml:"concurrency" env:"CONCURRENCY"`
}

// MaxSizeBytes returns the upload limit in bytes.
func (f FilesConfig) MaxSizeBytes() int64 {
	return int64(f.MaxSizeMB) * 1024 * 1024
}

// SessionConfig tunes the session manager.
type SessionConfig struct {
	MaxRetries int `toml:"max_retries" env:"MAX_RETRIES"`
}

// LocalConfig configures the SQLite demo backend used by --demo.
type LocalConfig struct {
	Enabled     bool          `toml:"enabled" env:"ENABLED"`
	DBPath      string        `toml:"db_path" env:"DB_PATH"`
	BlobDir     string        `toml:"blob_dir" env:"BLOB_DIR"`
	SeedDemo    bool          `toml:"seed_demo" env:"SEED_DEMO"`
	UserID      string        `toml:"user_id" env:"USER_ID"`
	Stream      bool          `toml:"stream" env:"STREAM"`
	StreamDelay time.Duration `toml:"stream_delay" env:"STREAM_DELAY"`
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	Theme        string `toml:"theme" env:"THEME"`
	Compact      bool   `toml:"compact" env:"COMPACT"`
	Markdown     bool   `toml:"markdown" env:"MARKDOWN"`
	ShowStats    bool   `toml:"show_stats" env:"SHOW_STATS"`
	SidebarWidth int    `toml:"sidebar_width" env:"SIDEBAR_WIDTH"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
	File   string `toml:"file" env:"FILE"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default allow-lists. The document list covers what the backend can
// extract text from.
var (
	DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	DefaultAudioTypes = []string{"audio/mpeg", "audio/wav", "audio/ogg", "audio/webm"}
	DefaultVideoTypes = []string{"video/mp4", "video/webm", "video/quicktime"}
	DefaultDocTypes   = []string{
		"application/pdf",
		"text/plain",
		"text/markdown",
		"text/csv",
		"application/json",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// Default returns a configuration with built-in defaults.
func Default() *Config {
	dir, _ := ConfigDir()
	return &Config{
		API: APIConfig{
			BaseURL:         "http://localhost:8000",
			WSURL:           "ws://localhost:8000/ws/chat",
			Timeout:         30 * time.Second,
			Stream:          true,
			ModelPreference: "auto",
		},
		Files: FilesConfig{
			MaxSizeMB:         100,
			ImageTypes:        append([]string(nil), DefaultImageTypes...),
			AudioTypes:        append([]string(nil), DefaultAudioTypes...),
			VideoTypes:        append([]string(nil), DefaultVideoTypes...),
			DocumentTypes:     append([]string(nil), DefaultDocTypes...),
			ProgressPerSecond: 10,
			Concurrency:       3,
		},
		Session: SessionConfig{
			MaxRetries: 3,
		},
		Local: LocalConfig{
			DBPath:      filepath.Join(dir, "demo.db"),
			BlobDir:     filepath.Join(dir, "blobs"),
			SeedDemo:    true,
			UserID:      "user-1",
			Stream:      true,
			StreamDelay: 40 * time.Millisecond,
		},
		UI: UIConfig{
			Theme:        "auto",
			Markdown:     true,
			ShowStats:    true,
			SidebarWidth: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "olympus.log"),
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the olympus configuration directory (~/.olympus).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".olympus"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path (the default location when empty),
// then .env files, then OLYMPUS_* environment variables, and validates
// the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads .env from the working directory and the config dir.
// Variables already present in the environment win.
func LoadDotEnv() error {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies OLYMPUS_* environment variables to c.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes cfg to path (the default location when empty).
// SECURITY: 0600, the file may carry an API token.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	var buf bytes.Buffer
	buf.WriteString("# olympus configuration file\n")
	buf.WriteString("# Environment variables (OLYMPUS_*) override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := validateURL(c.API.BaseURL, "http", "https"); err != nil {
		add("api.base_url", "%v", err)
	}
	if c.API.WSURL != "" {
		if err := validateURL(c.API.WSURL, "ws", "wss"); err != nil {
			add("api.ws_url", "%v", err)
		}
	}
	if c.API.Timeout <= 0 {
		add("api.timeout", "must be positive, got %s", c.API.Timeout)
	}

	if c.Files.MaxSizeMB <= 0 {
		add("files.max_size_mb", "must be positive, got %d", c.Files.MaxSizeMB)
	}
	if len(c.Files.ImageTypes)+len(c.Files.AudioTypes)+len(c.Files.VideoTypes)+len(c.Files.DocumentTypes) == 0 {
		add("files", "at least one allowed type is required")
	}
	if c.Files.ProgressPerSecond <= 0 {
		add("files.progress_per_second", "must be positive, got %v", c.Files.ProgressPerSecond)
	}
	if c.Files.Concurrency < 1 {
		add("files.concurrency", "must be at least 1, got %d", c.Files.Concurrency)
	}

	if c.Session.MaxRetries < 0 || c.Session.MaxRetries > 10 {
		add("session.max_retries", "must be between 0 and 10, got %d", c.Session.MaxRetries)
	}

	if c.Local.Enabled && c.Local.DBPath == "" {
		add("local.db_path", "required when the demo backend is enabled")
	}
	if c.Local.StreamDelay < 0 {
		add("local.stream_delay", "must not be negative")
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}
	if c.UI.SidebarWidth < 10 {
		add("ui.sidebar_width", "must be at least 10, got %d", c.UI.SidebarWidth)
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "invalid level '%s'", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "invalid format '%s', must be text or json", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("URL %q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("URL %q must use %s", raw, strings.Join(schemes, " or "))
}
