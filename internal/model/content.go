// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "strings"

// =============================================================================
// CONTENT KIND
// =============================================================================

// ContentKind is the tag of a ContentPart.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
	KindAudio ContentKind = "audio"
	KindVideo ContentKind = "video"
	KindFile  ContentKind = "file"
)

// String returns the string representation of the kind.
func (k ContentKind) String() string {
	return string(k)
}

// IsMedia reports whether the kind references an uploaded file.
func (k ContentKind) IsMedia() bool {
	return k != KindText
}

// KindForMIME maps a MIME type to a content kind by its top-level prefix.
// Anything that is not image/, audio/ or video/ is a generic file.
func KindForMIME(mimeType string) ContentKind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	default:
		return KindFile
	}
}

// =============================================================================
// CONTENT PART
// =============================================================================

// ContentPart is one typed unit of message content.
// Text parts only use Text; media parts use the remaining fields.
type ContentPart struct {
	Kind ContentKind `json:"type"`
	Text string      `json:"text,omitempty"`

	URL           string  `json:"url,omitempty"`
	Filename      string  `json:"filename,omitempty"`
	MimeType      string  `json:"mime_type,omitempty"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
	Duration      float64 `json:"duration,omitempty"` // seconds, audio/video
	Transcription string  `json:"transcription,omitempty"`
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Kind: KindText, Text: text}
}

// ImagePart creates an image content part.
func ImagePart(url, filename, mimeType string) ContentPart {
	return ContentPart{Kind: KindImage, URL: url, Filename: filename, MimeType: mimeType}
}

// MediaPart creates a media part whose kind is derived from the MIME type.
func MediaPart(url, filename, mimeType string) ContentPart {
	return ContentPart{Kind: KindForMIME(mimeType), URL: url, Filename: filename, MimeType: mimeType}
}

// IsBlank reports whether the part carries nothing worth sending.
// Media parts are never blank; text parts are blank when only whitespace.
func (p ContentPart) IsBlank() bool {
	if p.Kind != KindText {
		return false
	}
	return strings.TrimSpace(p.Text) == ""
}

// Label returns a short human-readable description of the part.
func (p ContentPart) Label() string {
	if p.Kind == KindText {
		return p.Text
	}
	name := p.Filename
	if name == "" {
		name = p.URL
	}
	return "[" + p.Kind.String() + ": " + name + "]"
}

// CloneParts returns a copy of the slice so callers cannot alias session state.
func CloneParts(parts []ContentPart) []ContentPart {
	if parts == nil {
		return nil
	}
	out := make([]ContentPart, len(parts))
	copy(out, parts)
	return out
}
