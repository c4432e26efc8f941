// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the olympus TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
	"github.com/jeranaias/olympus-tui/internal/ui/styles"
	"github.com/jeranaias/olympus-tui/internal/util"
)

// =============================================================================
// PENDING FILE STRIP
// =============================================================================

const (
	fileNameWidth = 24
	barWidth      = 20
)

// FileStrip renders the composer's pending attachments, one row each:
// status, name, size, then a progress bar, a ready mark or the error.
type FileStrip struct {
	bar progress.Model
}

// NewFileStrip creates a strip with a static (non-animated) progress bar.
func NewFileStrip() FileStrip {
	return FileStrip{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
	}
}

// View renders pending files. Returns "" when there are none.
func (s FileStrip) View(theme *styles.Theme, pending []model.PendingFile, width int) string {
	if len(pending) == 0 {
		return ""
	}

	rows := make([]string, 0, len(pending))
	for i, f := range pending {
		name := util.PadRight(f.Filename, fileNameWidth)
		head := fmt.Sprintf("%d. %s %8s  ", i+1, theme.FileName.Render(name), files.FormatSize(f.Size))

		var tail string
		switch f.Status {
		case model.FileReady:
			tail = theme.FileReady.Render(styles.StatusIndicators.Success + " ready")
		case model.FileError:
			msg := util.TruncateWidth(f.Error, max(width-fileNameWidth-20, 16))
			tail = theme.FileError.Render(styles.StatusIndicators.Error + " " + msg)
		case model.FileProcessing:
			tail = s.bar.ViewAs(float64(f.Progress)/100) + " " +
				theme.FileUploading.Render(fmt.Sprintf("processing %d%%", f.Progress))
		default:
			tail = s.bar.ViewAs(float64(f.Progress)/100) + " " +
				theme.FileUploading.Render(fmt.Sprintf("%d%%", f.Progress))
		}
		rows = append(rows, head+tail)
	}
	return theme.FileStrip.Render(strings.Join(rows, "\n"))
}
