// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes any backend.Backend over the chat HTTP API, so the
// network client can be run end to end against the demo store.
//
// # Endpoints
//
//   - GET    /health                     - Health check
//   - GET    /api/v1/conversations       - Paginated list (page, page_size)
//   - POST   /api/v1/conversations       - Create
//   - GET    /api/v1/conversations/{id}  - Conversation with messages
//   - DELETE /api/v1/conversations/{id}  - Delete
//   - POST   /api/v1/chat/send           - Send a message
//   - POST   /api/v1/files/upload        - Multipart upload ("file" field)
//   - GET    /api/v1/files/{id}          - Download a stored upload
//   - GET    /ws/chat?token=             - Event stream (WebSocket)
//
// Errors use the {"detail": ..., "code": ...} body.
//
// # Middleware
//
//   - Bearer token authentication with constant-time comparison
//   - Per-IP token bucket rate limiting
//   - CORS for browser clients
//   - Request logging and panic recovery
//
// # Usage
//
//	srv := server.NewServer(":8000", store,
//		server.WithUploader(store),
//		server.WithFileStore(store),
//		server.WithEvents(func() backend.StreamSource { return store.Hub().Subscribe() }),
//		server.WithLogger(log),
//	)
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package server
