// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// sniffSize is how much of an upload is read to detect its type.
const sniffSize = 3072

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Uploads bool   `json:"uploads"`
	Stream  bool   `json:"stream"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Uploads: s.uploader != nil,
		Stream:  s.events != nil,
	})
}

// ============================================================================
// CONVERSATIONS
// ============================================================================

// PageResponse is the paginated list envelope.
type PageResponse struct {
	Items      []model.Conversation `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 1, 1<<20)
	size := queryInt(r, "page_size", defaultPageSize, 1, maxPageSize)

	all, err := s.backend.ListConversations(r.Context())
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}

	resp := PageResponse{
		Items:      []model.Conversation{},
		Total:      len(all),
		Page:       page,
		PageSize:   size,
		TotalPages: (len(all) + size - 1) / size,
	}
	if start := (page - 1) * size; start < len(all) {
		end := min(start+size, len(all))
		resp.Items = all[start:end]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	conv, err := s.backend.CreateConversation(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.backend.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// CHAT
// ============================================================================

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req backend.SendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	nonBlank := false
	for _, p := range req.Content {
		if !p.IsBlank() {
			nonBlank = true
			break
		}
	}
	if !nonBlank {
		writeError(w, http.StatusBadRequest, "empty_message", "Message content is empty")
		return
	}

	resp, err := s.backend.SendMessage(r.Context(), req)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// FILES
// ============================================================================

// UploadResponse is the stored-file record returned by the upload endpoint.
type UploadResponse struct {
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

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		writeError(w, http.StatusNotImplemented, "uploads_disabled", "Uploads are not enabled")
		return
	}
	// Leave headroom for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.policy.MaxSize+64*1024)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Expected multipart/form-data")
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", `Missing "file" field`)
			return
		}
		if err != nil {
			s.writeBackendError(w, r, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		head := make([]byte, sniffSize)
		n, err := io.ReadFull(part, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			s.writeBackendError(w, r, err)
			return
		}
		head = head[:n]

		up, err := s.uploader.UploadFile(r.Context(), backend.Upload{
			Filename:    part.FileName(),
			ContentType: partContentType(part.Header.Get("Content-Type"), head),
			Body:        io.MultiReader(bytes.NewReader(head), part),
		}, nil)
		if err != nil {
			s.writeBackendError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, UploadResponse{
			ID:               up.ID,
			URL:              up.URL,
			Filename:         up.ID,
			OriginalFilename: up.Filename,
			ContentType:      up.ContentType,
			Size:             up.Size,
			Status:           "ready",
			ThumbnailURL:     up.ThumbnailURL,
			Transcription:    up.Transcription,
		})
		return
	}
}

// partContentType trusts the declared type unless it is missing or
// generic, in which case the content is sniffed.
func partContentType(declared string, head []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(mimetype.Detect(head).String())
	return mt
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}
	rec, fh, err := s.files.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	defer fh.Close()

	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": rec.Filename}))
	http.ServeContent(w, r, rec.Filename, time.Time{}, fh)
}

// ============================================================================
// REQUEST HELPERS
// ============================================================================

// decodeBody decodes a JSON body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return max(lo, min(n, hi))
}
