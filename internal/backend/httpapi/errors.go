// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jeranaias/olympus-tui/internal/backend"
)

// Error variables for common API failures.
var (
	// ErrUnauthorized indicates a missing, invalid or expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound aliases backend.ErrNotFound so deletes stay idempotent.
	ErrNotFound = backend.ErrNotFound

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")
)

// APIError is a non-2xx response. Detail and Code come from the JSON
// error body when the server sent one.
type APIError struct {
	Status int
	Detail string
	Code   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error [%s] (HTTP %d): %s", e.Code, e.Status, detail)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, detail)
}

// Unwrap maps the status to one of the sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500:
		return ErrServer
	}
	return nil
}

// errorBody is the server's error payload.
type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
	Field  string `json:"field,omitempty"`
}
