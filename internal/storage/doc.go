// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is the local demo backend: a SQLite-backed implementation
// of backend.Backend and backend.Uploader with canned assistant replies,
// plus an in-process Hub that streams those replies as server-push events.
//
// It backs --demo mode and the mock server, so the client can be used and
// tested without the real service.
//
// # Key Types
//
//   - Store: conversations, messages and uploaded files in one database
//   - Hub: fan-out of backend.StreamEvent to subscribers
//
// # Usage
//
//	store, err := storage.Open(cfg.Local, storage.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	sub := store.Hub().Subscribe()
//	mgr := session.NewManager(store, session.WithStreamingReplies(true))
//	go mgr.Consume(ctx, sub)
package storage
