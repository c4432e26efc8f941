// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// ErrConfigExists is returned by InitConfig when the file is already there
// and force is off.
var ErrConfigExists = errors.New("config file already exists")

// InitConfig writes the default configuration to path (the default
// location when empty). An existing file is only replaced when force is set.
func InitConfig(w io.Writer, path string, force bool) error {
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintln(w, styles.RenderSuccess("Wrote "+path))
	fmt.Fprintln(w, DimStyle.Render("Set api.base_url and api.token, or run with --demo."))
	return nil
}
