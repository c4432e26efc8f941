// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "time"

// =============================================================================
// PENDING FILE
// =============================================================================

// FileStatus is the upload lifecycle state of a PendingFile.
type FileStatus string

const (
	FileUploading  FileStatus = "uploading"
	FileProcessing FileStatus = "processing"
	FileReady      FileStatus = "ready"
	FileError      FileStatus = "error"
)

// String returns the string representation of the status.
func (s FileStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further progress updates are expected.
func (s FileStatus) IsTerminal() bool {
	return s == FileReady || s == FileError
}

// PendingFile is an upload attached to the next outgoing message.
// It exists only on the client and never becomes part of a Message
// directly; ToContentPart promotes it when the message is sent.
type PendingFile struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Filename      string     `json:"filename"`
	ContentType   string     `json:"content_type"`
	Size          int64      `json:"size"`
	Status        FileStatus `json:"status"`
	Progress      int        `json:"progress"`
	Error         string     `json:"error,omitempty"`
	PreviewURL    string     `json:"preview_url,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	Transcription string     `json:"transcription,omitempty"`
}

// Kind returns the content kind this file will be sent as.
func (f PendingFile) Kind() ContentKind {
	return KindForMIME(f.ContentType)
}

// ToContentPart promotes the file into a content part.
func (f PendingFile) ToContentPart() ContentPart {
	return ContentPart{
		Kind:          f.Kind(),
		URL:           f.URL,
		Filename:      f.Filename,
		MimeType:      f.ContentType,
		ThumbnailURL:  f.ThumbnailURL,
		Transcription: f.Transcription,
	}
}

// PendingFileUpdate is a partial update merged into a PendingFile.
// Nil fields are left untouched.
type PendingFileUpdate struct {
	ID            *string
	URL           *string
	Status        *FileStatus
	Progress      *int
	Error         *string
	ThumbnailURL  *string
	Transcription *string
}

// Apply merges u into f and returns the result. Progress is clamped to 0-100.
func (u PendingFileUpdate) Apply(f PendingFile) PendingFile {
	if u.ID != nil && *u.ID != "" {
		f.ID = *u.ID
	}
	if u.URL != nil {
		f.URL = *u.URL
	}
	if u.Status != nil {
		f.Status = *u.Status
	}
	if u.Progress != nil {
		f.Progress = clampPercent(*u.Progress)
	}
	if u.Error != nil {
		f.Error = *u.Error
	}
	if u.ThumbnailURL != nil {
		f.ThumbnailURL = *u.ThumbnailURL
	}
	if u.Transcription != nil {
		f.Transcription = *u.Transcription
	}
	return f
}

// ProgressUpdate builds an update that only moves the progress bar.
func ProgressUpdate(percent int) PendingFileUpdate {
	return PendingFileUpdate{Progress: &percent}
}

// ReadyUpdate builds the terminal success update carrying the server identity.
func ReadyUpdate(id, url string) PendingFileUpdate {
	status := FileReady
	progress := 100
	empty := ""
	return PendingFileUpdate{ID: &id, URL: &url, Status: &status, Progress: &progress, Error: &empty}
}

// ErrorUpdate builds the terminal failure update.
func ErrorUpdate(msg string) PendingFileUpdate {
	status := FileError
	return PendingFileUpdate{Status: &status, Error: &msg}
}

// StatusUpdate builds an update that only changes the status.
func StatusUpdate(status FileStatus) PendingFileUpdate {
	return PendingFileUpdate{Status: &status}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// =============================================================================
// FAILED MESSAGE
// =============================================================================

// FailedMessage records the content of the most recent send that failed,
// so it can be retried verbatim.
type FailedMessage struct {
	Content  []ContentPart `json:"content"`
	FailedAt time.Time     `json:"failed_at"`
}

// Clone returns a deep copy.
func (f *FailedMessage) Clone() *FailedMessage {
	if f == nil {
		return nil
	}
	return &FailedMessage{Content: CloneParts(f.Content), FailedAt: f.FailedAt}
}
