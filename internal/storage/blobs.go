// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/files"
)

// ErrUploadsDisabled is returned when the store has no blob directory.
var ErrUploadsDisabled = errors.New("uploads are disabled: no blob directory configured")

// =============================================================================
// UPLOADS
// =============================================================================

// UploadFile stores f under the blob directory and records it.
// It implements backend.Uploader.
func (s *Store) UploadFile(ctx context.Context, f backend.Upload, onProgress func(percent int)) (backend.UploadedFile, error) {
	if s.blobDir == "" {
		return backend.UploadedFile{}, ErrUploadsDisabled
	}
	if err := s.policy.Check(f.ContentType, f.Size); err != nil {
		return backend.UploadedFile{}, err
	}
	if err := os.MkdirAll(s.blobDir, 0700); err != nil {
		return backend.UploadedFile{}, fmt.Errorf("create blob directory: %w", err)
	}

	id := "file-" + uuid.NewString()
	path := filepath.Join(s.blobDir, id+filepath.Ext(f.Filename))

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return backend.UploadedFile{}, fmt.Errorf("create blob: %w", err)
	}

	var body io.Reader = f.Body
	if onProgress != nil {
		body = files.NewProgressReader(f.Body, f.Size, onProgress)
	}
	written, err := io.Copy(out, &ctxReader{ctx: ctx, r: body})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return backend.UploadedFile{}, fmt.Errorf("write blob: %w", err)
	}
	// Declared sizes can lie; enforce the limit on what actually arrived.
	if err := s.policy.Check(f.ContentType, written); err != nil {
		os.Remove(path)
		return backend.UploadedFile{}, err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, filename, content_type, size, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, id, f.Filename, f.ContentType, written, path, s.now().UnixMilli()); err != nil {
		os.Remove(path)
		return backend.UploadedFile{}, fmt.Errorf("record file: %w", err)
	}

	uploaded := backend.UploadedFile{
		ID:          id,
		URL:         s.fileURL(id, path),
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        written,
	}
	switch s.policy.CategoryOf(f.ContentType) {
	case files.CategoryImage:
		uploaded.ThumbnailURL = uploaded.URL
	case files.CategoryAudio:
		uploaded.Transcription = "(transcription is not available in demo mode)"
	}

	s.log.WithField("file_id", id).WithField("size", written).Debug("file stored")
	return uploaded, nil
}

// StoredFile is a recorded upload.
type StoredFile struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	Path        string
}

// OpenFile returns the record and an open handle for a stored upload.
// Returns backend.ErrNotFound for unknown IDs.
func (s *Store) OpenFile(ctx context.Context, id string) (StoredFile, *os.File, error) {
	var sf StoredFile
	err := s.db.QueryRowContext(ctx, `SELECT id, filename, content_type, size, path FROM files WHERE id = ?`, id).
		Scan(&sf.ID, &sf.Filename, &sf.ContentType, &sf.Size, &sf.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredFile{}, nil, fmt.Errorf("file %s: %w", id, backend.ErrNotFound)
	}
	if err != nil {
		return StoredFile{}, nil, fmt.Errorf("lookup file: %w", err)
	}
	fh, err := os.Open(sf.Path)
	if err != nil {
		return StoredFile{}, nil, fmt.Errorf("open blob: %w", err)
	}
	return sf, fh, nil
}

func (s *Store) fileURL(id, path string) string {
	if s.fileBaseURL != "" {
		return strings.TrimRight(s.fileBaseURL, "/") + "/files/" + id
	}
	return "file://" + filepath.ToSlash(path)
}

// ctxReader stops a copy when ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ backend.Uploader = (*Store)(nil)
var _ backend.Backend = (*Store)(nil)
