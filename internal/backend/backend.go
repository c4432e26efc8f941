// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend defines the collaborators the session manager talks to:
// the chat API, the upload endpoint and the server-push event stream.
//
// Implementations:
//   - httpapi: the remote REST + WebSocket API
//   - storage: the local SQLite demo backend
package backend

import (
	"context"
	"errors"
	"io"

	"github.com/jeranaias/olympus-tui/internal/model"
)

// ErrNotFound is returned when a conversation does not exist.
// Deletes treat it as success.
var ErrNotFound = errors.New("not found")

// =============================================================================
// CHAT API
// =============================================================================

// SendRequest is one outgoing user message.
// An empty ConversationID asks the backend to start a new conversation.
// ClientMessageID is echoed on the stream events of the reply.
type SendRequest struct {
	ConversationID  string              `json:"conversation_id,omitempty"`
	ClientMessageID string              `json:"client_message_id,omitempty"`
	Content         []model.ContentPart `json:"content"`
	ModelPreference string              `json:"model_preference,omitempty"`
}

// SendResponse carries the server copy of the user message, the assistant
// reply when the backend answers synchronously, and the updated conversation.
// Reply is nil when the reply arrives over the event stream instead.
type SendResponse struct {
	Message      model.Message      `json:"message"`
	Reply        *model.Message     `json:"reply,omitempty"`
	Conversation model.Conversation `json:"conversation"`
}

// Backend is the remote chat API.
type Backend interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (model.ConversationWithMessages, error)
	CreateConversation(ctx context.Context, title string) (model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	SendMessage(ctx context.Context, req SendRequest) (SendResponse, error)
}

// =============================================================================
// UPLOADS
// =============================================================================

// Upload is a file ready to be sent. Body is read exactly once.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadedFile is the server's record of a stored upload.
type UploadedFile struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	Transcription string `json:"transcription,omitempty"`
}

// Uploader stores files. onProgress receives 0-100 and may be nil.
type Uploader interface {
	UploadFile(ctx context.Context, f Upload, onProgress func(percent int)) (UploadedFile, error)
}

// =============================================================================
// EVENT STREAM
// =============================================================================

// EventType is the wire name of a server-push event.
type EventType string

const (
	EventChatStart             EventType = "chat_start"
	EventChatChunk             EventType = "chat_chunk"
	EventChatEnd               EventType = "chat_end"
	EventError                 EventType = "error"
	EventProcessingStatus      EventType = "processing_status"
	EventTranscriptionProgress EventType = "transcription_progress"
)

// StreamEvent is one server-push event. Which fields are set depends on Type:
// chat_chunk carries Content, chat_end carries Message, error carries Error,
// and the file events carry FileID with Progress and/or Content.
type StreamEvent struct {
	Type            EventType      `json:"type"`
	ConversationID  string         `json:"conversation_id,omitempty"`
	MessageID       string         `json:"message_id,omitempty"`
	ClientMessageID string         `json:"client_message_id,omitempty"`
	FileID          string         `json:"file_id,omitempty"`
	Content         string         `json:"content,omitempty"`
	Error           string         `json:"error,omitempty"`
	Progress        int            `json:"progress,omitempty"`
	Message         *model.Message `json:"message,omitempty"`
}

// StreamSource delivers server-push events. The channel is closed after
// Close or when the source gives up.
type StreamSource interface {
	Events() <-chan StreamEvent
	Close() error
}
