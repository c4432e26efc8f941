// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for olympus.
//
// Commands return errors; main decides how to display them and which exit
// code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/backend/httpapi"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/session"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var cfgErrs config.ValidateErrors
	var netErr *session.NetworkError
	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &cfgErrs), errors.Is(err, ErrConfigExists):
		return ExitConfigError
	case errors.Is(err, httpapi.ErrUnauthorized):
		return ExitAuthError
	case errors.Is(err, backend.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &netErr):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// DisplayError writes err to w with the error indicator.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, styles.RenderError(err.Error()))

	var cfgErrs config.ValidateErrors
	if errors.As(err, &cfgErrs) {
		fmt.Fprintln(w, DimStyle.Render("  Fix the config file or the OLYMPUS_* environment variables."))
	}
}
