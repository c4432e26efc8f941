// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/olympus-tui/internal/config"
)

// DefaultMaxSize is the upload limit when none is configured (100 MiB).
const DefaultMaxSize int64 = 100 * 1024 * 1024

var (
	// ErrTypeNotAllowed is returned for content types outside the allow-list.
	ErrTypeNotAllowed = errors.New("file type not allowed")

	// ErrTooLarge is returned for files above the size limit.
	ErrTooLarge = errors.New("file too large")
)

// Category groups content types the way the composer presents them.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryUnknown  Category = ""
)

// Policy decides which files may be attached.
type Policy struct {
	MaxSize int64
	types   map[string]Category
}

// NewPolicy builds a policy from the files section of the config.
func NewPolicy(cfg config.FilesConfig) *Policy {
	p := &Policy{MaxSize: cfg.MaxSizeBytes(), types: make(map[string]Category)}
	if p.MaxSize <= 0 {
		p.MaxSize = DefaultMaxSize
	}
	p.allow(CategoryImage, cfg.ImageTypes)
	p.allow(CategoryAudio, cfg.AudioTypes)
	p.allow(CategoryVideo, cfg.VideoTypes)
	p.allow(CategoryDocument, cfg.DocumentTypes)
	return p
}

// DefaultPolicy returns the built-in allow-list with a 100 MiB limit.
func DefaultPolicy() *Policy {
	return NewPolicy(config.Default().Files)
}

func (p *Policy) allow(cat Category, types []string) {
	for _, t := range types {
		if t = normalizeType(t); t != "" {
			p.types[t] = cat
		}
	}
}

// CategoryOf returns the category for contentType, or CategoryUnknown.
func (p *Policy) CategoryOf(contentType string) Category {
	return p.types[normalizeType(contentType)]
}

// IsAllowedType reports whether contentType is on the allow-list.
func (p *Policy) IsAllowedType(contentType string) bool {
	return p.CategoryOf(contentType) != CategoryUnknown
}

// Check validates a content type and size. Errors wrap ErrTypeNotAllowed
// or ErrTooLarge.
func (p *Policy) Check(contentType string, size int64) error {
	if !p.IsAllowedType(contentType) {
		if contentType == "" {
			contentType = "unknown"
		}
		return fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}
	if size > p.MaxSize {
		return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, FormatSize(size), FormatSize(p.MaxSize))
	}
	return nil
}

// Validate checks a descriptor against the policy.
func (p *Policy) Validate(d Descriptor) error {
	return p.Check(d.ContentType, d.Size)
}

// AcceptedTypes returns the allow-list, sorted.
func (p *Policy) AcceptedTypes() []string {
	out := make([]string, 0, len(p.types))
	for t := range p.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// normalizeType lowercases and strips parameters ("text/plain; charset=utf-8").
func normalizeType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// FormatSize renders a byte count for humans: "512 B", "1.5 KB", "100 MB".
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB"}[exp]
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d %s", int64(value), suffix)
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
