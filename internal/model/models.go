// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a model the user can express a preference for.
// The backend does the actual routing; this catalog only feeds the selector.
type ModelInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Provider       string `json:"provider"`
	SupportsVision bool   `json:"supports_vision"`
	SupportsAudio  bool   `json:"supports_audio"`
	SupportsVideo  bool   `json:"supports_video"`
}

// Supports reports whether the model accepts the given content kind.
func (m ModelInfo) Supports(kind ContentKind) bool {
	switch kind {
	case KindImage:
		return m.SupportsVision
	case KindAudio:
		return m.SupportsAudio
	case KindVideo:
		return m.SupportsVideo
	default:
		return true
	}
}

// AutoModel lets the backend router pick.
const AutoModel = "auto"

// Models is the catalog of selectable model preferences.
var Models = map[string]ModelInfo{
	AutoModel:           {ID: AutoModel, Name: "Auto", Provider: "router", SupportsVision: true, SupportsAudio: true, SupportsVideo: true},
	"gpt-4o":            {ID: "gpt-4o", Name: "GPT-4o", Provider: "openai", SupportsVision: true, SupportsAudio: true},
	"gpt-4o-mini":       {ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "openai", SupportsVision: true},
	"claude-3-5-sonnet": {ID: "claude-3-5-sonnet", Name: "Claude 3.5 Sonnet", Provider: "anthropic", SupportsVision: true},
	"claude-3-haiku":    {ID: "claude-3-haiku", Name: "Claude 3 Haiku", Provider: "anthropic", SupportsVision: true},
	"gemini-1.5-pro":    {ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "google", SupportsVision: true, SupportsAudio: true, SupportsVideo: true},
	"grok-2":            {ID: "grok-2", Name: "Grok 2", Provider: "xai"},
}

// providerOrder is the selector grouping order.
var providerOrder = []string{"router", "openai", "anthropic", "google", "xai"}

// LookupModel finds a model by ID, case-insensitively.
func LookupModel(id string) (ModelInfo, bool) {
	info, ok := Models[strings.ToLower(strings.TrimSpace(id))]
	return info, ok
}

// SortedModels returns the catalog grouped by provider, then by name.
func SortedModels() []ModelInfo {
	rank := make(map[string]int, len(providerOrder))
	for i, p := range providerOrder {
		rank[p] = i
	}
	out := make([]ModelInfo, 0, len(Models))
	for _, m := range Models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].Provider], rank[out[j].Provider]
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
