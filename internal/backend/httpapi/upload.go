// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/files"
)

// uploadResponse is the server's record of a stored file.
type uploadResponse struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	Status           string `json:"status"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
	Transcription    string `json:"transcription,omitempty"`
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadFile streams f as multipart/form-data field "file". The policy is
// checked before any bytes are sent. onProgress reports the share of the
// body consumed by the transport.
func (c *Client) UploadFile(ctx context.Context, f backend.Upload, onProgress func(percent int)) (backend.UploadedFile, error) {
	if err := c.policy.Check(f.ContentType, f.Size); err != nil {
		return backend.UploadedFile{}, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Filename)))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, files.NewProgressReader(f.Body, f.Size, onProgress)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/files/upload", pr)
	if err != nil {
		pr.Close()
		return backend.UploadedFile{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp uploadResponse
	err = c.send(req, &resp)
	// Unblock the writer goroutine if the transport stopped reading early.
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return backend.UploadedFile{}, err
	}

	name := resp.OriginalFilename
	if name == "" {
		name = resp.Filename
	}
	if name == "" {
		name = f.Filename
	}
	return backend.UploadedFile{
		ID:            resp.ID,
		URL:           resp.URL,
		Filename:      name,
		ContentType:   resp.ContentType,
		Size:          resp.Size,
		ThumbnailURL:  resp.ThumbnailURL,
		Transcription: resp.Transcription,
	}, nil
}
