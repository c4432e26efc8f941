// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"

	"github.com/jeranaias/olympus-tui/internal/files"
)

// =============================================================================
// SENTINELS
// =============================================================================

var (
	// ErrEmptyMessage: no non-blank text and no ready attachment.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInFlight: another send has not settled yet.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrFailedPending: the last failed message must be retried or dismissed first.
	ErrFailedPending = errors.New("retry or dismiss the failed message first")

	// ErrNothingToRetry: RetryLastMessage without a failed message.
	ErrNothingToRetry = errors.New("no failed message to retry")

	// ErrFileTypeNotAllowed and ErrFileTooLarge come from the attachment policy.
	ErrFileTypeNotAllowed = files.ErrTypeNotAllowed
	ErrFileTooLarge       = files.ErrTooLarge

	// ErrRetryExhausted matches every *RetryExhaustedError.
	ErrRetryExhausted = errors.New("maximum retries reached")
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError is a local precondition failure. It never reaches the
// network and never changes session state.
type ValidationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(op string, err error) *ValidationError {
	return &ValidationError{Op: op, Err: err}
}

// NetworkError wraps a failed backend call: transport failure, timeout,
// or a non-2xx response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError is returned once the retry budget is spent.
type RetryExhaustedError struct {
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("maximum retries reached (%d attempts)", e.Attempts)
}

// Is makes errors.Is(err, ErrRetryExhausted) hold.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
