// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package httpapi is the network backend: a REST client for the chat API
// and a WebSocket client for its event stream.
//
// Endpoints:
//   - GET    /api/v1/conversations       - paginated conversation list
//   - POST   /api/v1/conversations       - create
//   - GET    /api/v1/conversations/{id}  - conversation with messages
//   - DELETE /api/v1/conversations/{id}  - delete
//   - POST   /api/v1/chat/send           - send a message
//   - POST   /api/v1/files/upload        - multipart upload
//   - GET    /ws/chat?token=             - server-push events
//
// Usage:
//
//	client := httpapi.NewClient(cfg.API, httpapi.WithLogger(log))
//	stream := httpapi.DialStream(ctx, cfg.API, httpapi.WithStreamLogger(log))
//	defer stream.Close()
//	go manager.Consume(ctx, stream)
package httpapi
