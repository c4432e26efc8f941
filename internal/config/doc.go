// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates olympus configuration.
//
// # Configuration Precedence
//
// Highest first:
//   - Environment variables (OLYMPUS_*), including those from .env files
//   - ~/.olympus/config.toml (or the --config path)
//   - Built-in defaults
//
// Nested sections map to prefixed variables: api.base_url is
// OLYMPUS_API_BASE_URL, files.max_size_mb is OLYMPUS_FILES_MAX_SIZE_MB.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := httpapi.New(cfg.API, logger)
package config
