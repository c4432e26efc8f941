// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// =============================================================================
// PENDING FILES
// =============================================================================

// AddPendingFile validates d against the attachment policy and appends an
// uploading entry with progress 0. A rejected file is never added; the
// error is a *ValidationError wrapping ErrFileTypeNotAllowed or
// ErrFileTooLarge. The manager does no I/O: an external driver such as
// files.Attacher uploads the file and reports back via UpdatePendingFile.
func (m *Manager) AddPendingFile(d files.Descriptor) (model.PendingFile, error) {
	if err := m.policy.Validate(d); err != nil {
		return model.PendingFile{}, &ValidationError{Op: "attach", Reason: err.Error(), Err: err}
	}

	f := model.PendingFile{
		ID:          model.NewTempID(),
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		Status:      model.FileUploading,
	}
	if f.Kind() == model.KindImage && d.Path != "" {
		f.PreviewURL = "file://" + d.Path
	}

	m.mu.Lock()
	m.pendingFiles = append(m.pendingFiles, f)
	m.log.WithFields(logrus.Fields{"file_id": f.ID, "filename": f.Filename}).Debug("pending file added")
	m.unlockAndNotify()
	return f, nil
}

// UpdatePendingFile merges u into the entry with id. It returns false when
// the entry no longer exists.
func (m *Manager) UpdatePendingFile(id string, u model.PendingFileUpdate) bool {
	m.mu.Lock()
	for i := range m.pendingFiles {
		if m.pendingFiles[i].ID == id {
			m.pendingFiles[i] = u.Apply(m.pendingFiles[i])
			m.unlockAndNotify()
			return true
		}
	}
	m.mu.Unlock()
	return false
}

// RemovePendingFile deletes the entry with id. Releasing a local preview is
// the caller's job.
func (m *Manager) RemovePendingFile(id string) bool {
	m.mu.Lock()
	for i := range m.pendingFiles {
		if m.pendingFiles[i].ID == id {
			m.pendingFiles = append(m.pendingFiles[:i:i], m.pendingFiles[i+1:]...)
			m.unlockAndNotify()
			return true
		}
	}
	m.mu.Unlock()
	return false
}

// ClearPendingFiles empties the pending list.
func (m *Manager) ClearPendingFiles() {
	m.mu.Lock()
	m.pendingFiles = nil
	m.unlockAndNotify()
}

// PendingFile returns the entry with id.
func (m *Manager) PendingFile(id string) (model.PendingFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.pendingFiles {
		if f.ID == id {
			return f, true
		}
	}
	return model.PendingFile{}, false
}
